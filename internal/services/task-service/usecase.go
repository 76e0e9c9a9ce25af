package task_service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/NordCoder/Taskgate/internal/domain/task"
)

// Transactor runs fn in a transaction carried by the ctx it receives.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Config struct {
	EventTimeout time.Duration
	Now          func() time.Time
	// Tx, when set, makes each write and its event one transaction. A failed
	// event then fails the write.
	Tx Transactor
}

type Usecase struct {
	repo   task.Repo
	events task.Events
	log    *zap.Logger
	cfg    Config
}

// NewUsecase wires the task store. events may be nil, in which case no
// lifecycle events are emitted.
func NewUsecase(repo task.Repo, events task.Events, log *zap.Logger, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: repo, events: events, log: log, cfg: cfg}
}

type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	UserID      int64  `json:"user_id"`
}

func (in Input) validate() error {
	if n := utf8.RuneCountInString(in.Title); n == 0 || n > task.MaxTitleLen {
		return fmt.Errorf("%w: title must be 1..%d characters", task.ErrInvalid, task.MaxTitleLen)
	}
	if err := validateStatus(in.Status, true); err != nil {
		return err
	}
	return validateUser(in.UserID)
}

func validateStatus(status string, required bool) error {
	n := utf8.RuneCountInString(status)
	if (required && n == 0) || n > task.MaxStatusLen {
		return fmt.Errorf("%w: status must be 1..%d characters", task.ErrInvalid, task.MaxStatusLen)
	}
	return nil
}

func validateUser(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: user_id must be positive", task.ErrInvalid)
	}
	return nil
}

func (u *Usecase) Create(ctx context.Context, in Input) (*task.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return u.write(ctx, task.EventCreated, func(ctx context.Context) (*task.Task, error) {
		t := &task.Task{Title: in.Title, Description: in.Description, Status: in.Status, UserID: in.UserID}
		if err := u.repo.Create(ctx, t); err != nil {
			return nil, err
		}
		return t, nil
	})
}

// List returns the user's tasks, narrowed to status when it is not blank.
func (u *Usecase) List(ctx context.Context, f task.Filter) ([]task.Task, error) {
	if err := validateUser(f.UserID); err != nil {
		return nil, err
	}
	f.Status = strings.TrimSpace(f.Status)
	if err := validateStatus(f.Status, false); err != nil {
		return nil, err
	}
	tasks, err := u.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

func (u *Usecase) Get(ctx context.Context, userID, id int64) (*task.Task, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	return u.owned(ctx, userID, id)
}

// Update replaces the task's fields. Ownership is checked against the
// current row and the write is a separate statement; they share a
// transaction only when a transactor is configured.
func (u *Usecase) Update(ctx context.Context, id int64, in Input) (*task.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return u.write(ctx, task.EventUpdated, func(ctx context.Context) (*task.Task, error) {
		t, err := u.owned(ctx, in.UserID, id)
		if err != nil {
			return nil, err
		}
		t.Title, t.Description, t.Status = in.Title, in.Description, in.Status
		if err := u.repo.Update(ctx, t); err != nil {
			return nil, err
		}
		return t, nil
	})
}

func (u *Usecase) Delete(ctx context.Context, userID, id int64) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	_, err := u.write(ctx, task.EventDeleted, func(ctx context.Context) (*task.Task, error) {
		t, err := u.owned(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if err := u.repo.Delete(ctx, id); err != nil {
			return nil, err
		}
		return t, nil
	})
	return err
}

func (u *Usecase) owned(ctx context.Context, userID, id int64) (*task.Task, error) {
	t, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, task.ErrForbidden
	}
	return t, nil
}

// write runs op and records its event. Without a transactor the event is
// emitted after op succeeds.
func (u *Usecase) write(ctx context.Context, typ task.EventType, op func(ctx context.Context) (*task.Task, error)) (*task.Task, error) {
	if u.cfg.Tx == nil || u.events == nil {
		t, err := op(ctx)
		if err != nil {
			return nil, err
		}
		u.emit(ctx, typ, *t)
		return t, nil
	}

	var out *task.Task
	err := u.cfg.Tx.WithTx(ctx, func(ctx context.Context) error {
		t, err := op(ctx)
		if err != nil {
			return err
		}
		if err := u.events.Publish(ctx, u.event(typ, *t)); err != nil {
			return fmt.Errorf("record %s: %w", typ, err)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) event(typ task.EventType, t task.Task) task.Event {
	return task.Event{Type: typ, Task: t, OccurredAt: u.cfg.Now()}
}

// emit publishes best-effort: failures are logged and never reach the caller.
func (u *Usecase) emit(ctx context.Context, typ task.EventType, t task.Task) {
	if u.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.EventTimeout)
	defer cancel()

	if err := u.events.Publish(ctx, u.event(typ, t)); err != nil {
		u.log.Warn("task event not published", zap.String("type", string(typ)), zap.Int64("task_id", t.ID), zap.Error(err))
	}
}
