package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/NordCoder/Taskgate/internal/domain/auth"
)

type Config struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func (c Config) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

var _ auth.SessionStore = (*SessionStore)(nil)

// SessionStore keeps refresh tokens as plain keys whose value is the
// username and whose expiry is the session lifetime.
type SessionStore struct {
	rdb *goredis.Client
}

func New(cfg Config) *SessionStore {
	return &SessionStore{rdb: goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})}
}

func (s *SessionStore) Set(ctx context.Context, token, username string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, token, username, ttl).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (string, error) {
	username, err := s.rdb.Get(ctx, token).Result()
	if errors.Is(err, goredis.Nil) {
		return "", auth.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session get: %w", err)
	}
	return username, nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (s *SessionStore) Close() error { return s.rdb.Close() }
