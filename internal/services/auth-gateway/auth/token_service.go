package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	coreauth "github.com/NordCoder/Taskgate/internal/auth"
	domainauth "github.com/NordCoder/Taskgate/internal/domain/auth"
)

type Config struct {
	Secret     []byte
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// TokenService mints and checks access tokens and binds refresh tokens to
// sessions in the session store.
type TokenService struct {
	signer   *coreauth.Signer
	sessions domainauth.SessionStore
	cfg      Config
}

func NewTokenService(sessions domainauth.SessionStore, cfg Config) (*TokenService, error) {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	signer, err := coreauth.NewSigner(cfg.Secret, cfg.Algorithm, cfg.Now)
	if err != nil {
		return nil, err
	}
	return &TokenService{signer: signer, sessions: sessions, cfg: cfg}, nil
}

// CreateAccessToken signs {sub, iat, exp=now+ttl}. A non-positive ttl falls
// back to the configured access lifetime.
func (s *TokenService) CreateAccessToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.cfg.AccessTTL
	}
	return s.signer.Sign(subject, "", ttl)
}

// CreateRefreshToken signs a token without expiry and stores it as a
// session key for subject with the refresh lifetime as TTL.
func (s *TokenService) CreateRefreshToken(ctx context.Context, subject string) (string, error) {
	tok, err := s.signer.Sign(subject, uuid.NewString(), 0)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Set(ctx, tok, subject, s.cfg.RefreshTTL); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return tok, nil
}

// VerifyAccessToken returns coreauth.ErrTokenExpired or
// coreauth.ErrTokenInvalid on failure.
func (s *TokenService) VerifyAccessToken(token string) (*domainauth.Claims, error) {
	return s.signer.Parse(token, true)
}

// RenewAccessToken exchanges a refresh token for a new access token. The
// refresh token is not consumed.
func (s *TokenService) RenewAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrRefreshTokenInvalid
	}
	claims, err := s.signer.Parse(refreshToken, false)
	if err != nil {
		return "", ErrRefreshTokenInvalid
	}

	username, err := s.sessions.Get(ctx, refreshToken)
	if errors.Is(err, domainauth.ErrSessionNotFound) {
		return "", ErrRefreshTokenInvalid
	}
	if err != nil {
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}
	if username != claims.Subject {
		return "", ErrRefreshTokenInvalid
	}

	return s.CreateAccessToken(username, 0)
}
