package auth

import "errors"

var (
	ErrMissingCredentials  = errors.New("missing username or password")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
	// ErrUnauthenticated means the request passed the gate but no usable
	// identity is attached to it, e.g. the user was deleted meanwhile.
	ErrUnauthenticated = errors.New("unauthenticated")
)
