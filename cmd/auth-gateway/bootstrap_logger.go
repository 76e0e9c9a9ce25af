package main

import (
	config "github.com/NordCoder/Taskgate/internal/config/auth-gateway"
	"github.com/NordCoder/Taskgate/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
}
