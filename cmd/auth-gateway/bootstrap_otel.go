package main

import (
	"context"

	config "github.com/NordCoder/Taskgate/internal/config/auth-gateway"
	"github.com/NordCoder/Taskgate/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	o, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		return nil, err
	}
	return o.Shutdown, nil
}
