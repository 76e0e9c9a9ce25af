package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/NordCoder/Taskgate/internal/domain/outbox"
	"github.com/NordCoder/Taskgate/internal/domain/task"
)

var _ task.Events = (*TaskEvents)(nil)

// TaskEvents records task events in the outbox instead of sending them.
type TaskEvents struct {
	repo  outbox.Repository
	newID func() string
}

func NewTaskEvents(repo outbox.Repository) *TaskEvents {
	return &TaskEvents{repo: repo, newID: uuid.NewString}
}

func (e *TaskEvents) Publish(ctx context.Context, ev task.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal task event: %w", err)
	}
	return e.repo.Enqueue(ctx, e.newID(), outbox.KindTaskEvent, data)
}
