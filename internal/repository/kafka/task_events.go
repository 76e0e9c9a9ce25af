package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/NordCoder/Taskgate/internal/domain/task"
	"github.com/NordCoder/Taskgate/internal/obs/retry"
)

var _ task.Events = (*TaskEvents)(nil)

// TaskEvents publishes task lifecycle events keyed by task id.
type TaskEvents struct {
	p      *Producer
	policy retry.Policy
}

func NewTaskEvents(p *Producer, log *zap.Logger) *TaskEvents {
	return &TaskEvents{p: p, policy: retry.DefaultKafkaPolicy(log)}
}

func (e *TaskEvents) Publish(ctx context.Context, ev task.Event) error {
	err := retry.Do(ctx, func(ctx context.Context) error {
		return e.p.PublishJSON(ctx, KeyFromInt64(ev.Task.ID), ev)
	}, e.policy)

	result := "ok"
	if err != nil {
		result = "error"
	}
	taskEvents.WithLabelValues(string(ev.Type), result).Inc()
	return err
}
