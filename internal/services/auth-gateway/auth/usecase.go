package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Taskgate/internal/domain/user"
)

type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

type Usecase struct {
	users  user.Repo
	hasher PasswordHasher
	tokens *TokenService
}

func NewUsecase(users user.Repo, hasher PasswordHasher, tokens *TokenService) *Usecase {
	return &Usecase{users: users, hasher: hasher, tokens: tokens}
}

// Register creates a user. The existence check and the insert are separate
// statements; a concurrent duplicate is caught by the UNIQUE constraint.
func (u *Usecase) Register(ctx context.Context, username, password string) (int64, error) {
	if username == "" || password == "" {
		return 0, ErrMissingCredentials
	}

	_, err := u.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return 0, ErrUserExists
	case !errors.Is(err, user.ErrNotFound):
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := u.hasher.Hash(ctx, password)
	if err != nil {
		return 0, err
	}
	newUser := &user.User{Username: username, PasswordHash: hash}
	if err := u.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrExists) {
			return 0, ErrUserExists
		}
		return 0, err
	}
	return newUser.ID, nil
}

// Login checks the password and issues an access/refresh pair. Nothing is
// written to the session store unless the password matches.
func (u *Usecase) Login(ctx context.Context, username, password string) (access, refresh string, err error) {
	if username == "" || password == "" {
		return "", "", ErrInvalidCredentials
	}

	rec, err := u.users.GetByUsername(ctx, username)
	if errors.Is(err, user.ErrNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("lookup user: %w", err)
	}
	ok, err := u.hasher.Verify(ctx, password, rec.PasswordHash)
	if err != nil {
		return "", "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", "", ErrInvalidCredentials
	}

	access, err = u.tokens.CreateAccessToken(rec.Username, 0)
	if err != nil {
		return "", "", err
	}
	refresh, err = u.tokens.CreateRefreshToken(ctx, rec.Username)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (u *Usecase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return u.tokens.RenewAccessToken(ctx, refreshToken)
}
