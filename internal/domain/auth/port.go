package auth

import (
	"context"
	"time"
)

// SessionStore maps a refresh token to the username it was issued for.
// Entries expire on their own; there is no delete.
type SessionStore interface {
	Set(ctx context.Context, token, username string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
}
