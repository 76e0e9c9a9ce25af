package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	config "github.com/NordCoder/Taskgate/internal/config/auth-gateway"
	"github.com/NordCoder/Taskgate/internal/obs/retry"
	pg "github.com/NordCoder/Taskgate/internal/repository/postgres"
	redisrepo "github.com/NordCoder/Taskgate/internal/repository/redis"
	"github.com/NordCoder/Taskgate/migrations"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := retry.Do(ctx, db.Ping, retry.StartupPolicy("postgres", cfg.Startup.Attempts, cfg.Startup.MaxWait, logger)); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := migrations.Up(ctx, db.SQL(), migrations.Auth); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info("migrations applied", zap.String("set", migrations.Auth))
	}
	return db, nil
}

func initSessions(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redisrepo.SessionStore, error) {
	store := redisrepo.New(cfg.Redis)
	if err := retry.Do(ctx, store.Ping, retry.StartupPolicy("redis", cfg.Startup.Attempts, cfg.Startup.MaxWait, logger)); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
