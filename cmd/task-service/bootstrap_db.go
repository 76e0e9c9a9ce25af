package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	config "github.com/NordCoder/Taskgate/internal/config/task-service"
	"github.com/NordCoder/Taskgate/internal/obs/retry"
	pg "github.com/NordCoder/Taskgate/internal/repository/postgres"
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
		if err := migrations.Up(ctx, db.SQL(), migrations.Tasks); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info("migrations applied", zap.String("set", migrations.Tasks))
	}
	return db, nil
}
