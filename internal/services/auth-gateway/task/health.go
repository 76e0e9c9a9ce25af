package task

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	tasksvc "github.com/NordCoder/Taskgate/internal/services/task-service"
)

// HealthProbe reports whether the task service answers SERVING on its gRPC
// health endpoint.
func HealthProbe(conn grpc.ClientConnInterface) func(context.Context) error {
	client := healthpb.NewHealthClient(conn)
	return func(ctx context.Context) error {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: tasksvc.ServiceName})
		if err != nil {
			return fmt.Errorf("task service health: %w", err)
		}
		if s := resp.GetStatus(); s != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("task service health: %s", s)
		}
		return nil
	}
}
