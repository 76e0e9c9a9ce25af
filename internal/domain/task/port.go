package task

import "context"

type Repo interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id int64) (*Task, error)
	List(ctx context.Context, f Filter) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int64) error
}

// Events receives task lifecycle notifications. Implementations must not
// block the caller for longer than the passed context allows.
type Events interface {
	Publish(ctx context.Context, e Event) error
}
