package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Taskgate/internal/domain/task"
)

var _ task.Repo = (*TaskRepo)(nil)

type TaskRepo struct {
	db *DB
}

func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

const (
	qTaskInsert = `
INSERT INTO tasks (title, description, status, user_id)
VALUES ($1, $2, $3, $4)
RETURNING id;`

	qTaskByID = `
SELECT id, title, description, status, user_id
FROM tasks
WHERE id = $1;`

	// Empty $2 disables the status filter.
	qTaskList = `
SELECT id, title, description, status, user_id
FROM tasks
WHERE user_id = $1
  AND ($2 = '' OR status = $2)
ORDER BY id;`

	qTaskUpdate = `
UPDATE tasks
SET title       = $2,
    description = $3,
    status      = $4,
    user_id     = $5
WHERE id = $1
RETURNING id, title, description, status, user_id;`

	qTaskDelete = `DELETE FROM tasks WHERE id = $1;`
)

func (r *TaskRepo) Create(ctx context.Context, t *task.Task) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qTaskInsert, t.Title, t.Description, t.Status, t.UserID).Scan(&t.ID); err != nil {
		return fmt.Errorf("task insert: %w", err)
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t task.Task
	if err := scanTask(r.db.execQueryer(ctx).QueryRow(ctx, qTaskByID, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) List(ctx context.Context, f task.Filter) ([]task.Task, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qTaskList, f.UserID, f.Status)
	if err != nil {
		return nil, fmt.Errorf("task list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (task.Task, error) {
		var t task.Task
		err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.UserID)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("task list scan: %w", err)
	}
	return out, nil
}

func (r *TaskRepo) Update(ctx context.Context, t *task.Task) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return scanTask(r.db.execQueryer(ctx).QueryRow(ctx, qTaskUpdate, t.ID, t.Title, t.Description, t.Status, t.UserID), t)
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qTaskDelete, id)
	if err != nil {
		return fmt.Errorf("task delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row, out *task.Task) error {
	if err := row.Scan(&out.ID, &out.Title, &out.Description, &out.Status, &out.UserID); err != nil {
		if isNoRows(err) {
			return task.ErrNotFound
		}
		return fmt.Errorf("scan task: %w", err)
	}
	return nil
}
