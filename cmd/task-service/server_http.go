package main

import (
	"context"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	config "github.com/NordCoder/Taskgate/internal/config/task-service"
	"github.com/NordCoder/Taskgate/internal/obs"
	tasksvc "github.com/NordCoder/Taskgate/internal/services/task-service"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, uc *tasksvc.Usecase, ready func(context.Context) error) (*http.Server, error) {
	mux := runtime.NewServeMux()
	if err := tasksvc.NewController(uc, logger).Register(mux); err != nil {
		return nil, err
	}

	metrics := obs.MetricsHandler()
	health := obs.HealthHandler(time.Second, ready)
	if err := mux.HandlePath(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		metrics.ServeHTTP(w, r)
	}); err != nil {
		return nil, err
	}
	if err := mux.HandlePath(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		health.ServeHTTP(w, r)
	}); err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.HTTPHandler(obs.WithRequestLogging(mux, logger), "task-service"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
