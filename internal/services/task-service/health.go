package task_service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported by the gRPC health service alongside
// the overall ("") status.
const ServiceName = "taskgate.tasks"

// Health mirrors the result of probe into the gRPC health service.
type Health struct {
	srv      *health.Server
	probe    func(context.Context) error
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

func NewHealth(probe func(context.Context) error, interval, timeout time.Duration, log *zap.Logger) *Health {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	h := &Health{srv: health.NewServer(), probe: probe, interval: interval, timeout: timeout, log: log}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *Health) Server() healthpb.HealthServer { return h.srv }

// Run probes until ctx is done, then marks the service NOT_SERVING.
func (h *Health) Run(ctx context.Context) {
	h.check(ctx)
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-t.C:
			h.check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (h *Health) Shutdown() { h.srv.Shutdown() }

func (h *Health) check(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.probe(pctx); err != nil {
		if ctx.Err() == nil {
			h.log.Warn("health probe failed", zap.Error(err))
		}
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

func (h *Health) set(s healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", s)
	h.srv.SetServingStatus(ServiceName, s)
}
