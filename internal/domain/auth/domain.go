package auth

import (
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Claims is the verified payload of an access or refresh token.
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
