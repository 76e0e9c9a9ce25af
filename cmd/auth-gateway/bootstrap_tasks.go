package main

import (
	"context"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	config "github.com/NordCoder/Taskgate/internal/config/auth-gateway"
	"github.com/NordCoder/Taskgate/internal/obs"
	"github.com/NordCoder/Taskgate/internal/obs/retry"
	"github.com/NordCoder/Taskgate/internal/services/auth-gateway/task"
)

// initTaskHealth dials the task service's gRPC port and waits until it
// reports SERVING. The returned probe backs /readyz.
func initTaskHealth(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*grpc.ClientConn, func(context.Context) error, error) {
	opts := obs.GRPCDialOpts()
	opts = append(opts,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(grpcprometheus.UnaryClientInterceptor),
	)
	conn, err := grpc.NewClient(cfg.Tasks.GRPCAddr, opts...)
	if err != nil {
		return nil, nil, err
	}

	probe := task.HealthProbe(conn)
	if err := retry.Do(ctx, probe, retry.StartupPolicy("task-service", cfg.Startup.Attempts, cfg.Startup.MaxWait, logger)); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, probe, nil
}
