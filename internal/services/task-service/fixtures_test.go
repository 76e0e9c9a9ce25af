package task_service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/NordCoder/Taskgate/internal/domain/task"
)

type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]task.Task
}

func newMemRepo() *memRepo { return &memRepo{rows: map[int64]task.Task{}} }

func (m *memRepo) Create(_ context.Context, t *task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	m.rows[t.ID] = *t
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, task.ErrNotFound
	}
	return &t, nil
}

func (m *memRepo) List(_ context.Context, f task.Filter) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []task.Task
	for _, t := range m.rows {
		if t.UserID == f.UserID && (f.Status == "" || t.Status == f.Status) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) Update(_ context.Context, t *task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		return task.ErrNotFound
	}
	m.rows[t.ID] = *t
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return task.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type recordedEvents struct {
	mu   sync.Mutex
	got  []task.Event
	fail bool
}

func (r *recordedEvents) Publish(_ context.Context, e task.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("broker down")
	}
	r.got = append(r.got, e)
	return nil
}

func (r *recordedEvents) Types() []task.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]task.EventType, 0, len(r.got))
	for _, e := range r.got {
		out = append(out, e.Type)
	}
	return out
}

// snapshotTx restores the repo's rows when fn fails.
type snapshotTx struct {
	repo  *memRepo
	calls int
}

func (s *snapshotTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	s.repo.mu.Lock()
	saved := make(map[int64]task.Task, len(s.repo.rows))
	for k, v := range s.repo.rows {
		saved[k] = v
	}
	s.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.repo.mu.Lock()
		s.repo.rows = saved
		s.repo.mu.Unlock()
		return err
	}
	return nil
}
