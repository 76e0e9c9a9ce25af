package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/Taskgate/internal/domain/task"
	"github.com/NordCoder/Taskgate/internal/obs/retry"
)

type fakeWriter struct {
	fails int
	msgs  []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("leader not available")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type quick struct{}

func (quick) Next(int) time.Duration { return time.Millisecond }

func TestTaskEvents_PublishRetries(t *testing.T) {
	w := &fakeWriter{fails: 2}
	ev := NewTaskEvents(&Producer{w: w, topic: "tasks", log: zap.NewNop()}, zap.NewNop())
	ev.policy.Backoff = quick{}

	at := time.Unix(1_700_000_000, 0).UTC()
	err := ev.Publish(context.Background(), task.Event{
		Type:       task.EventCreated,
		Task:       task.Task{ID: 42, Title: "t", Status: "new", UserID: 1},
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))

	var got task.Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, task.EventCreated, got.Type)
	assert.Equal(t, int64(42), got.Task.ID)
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestTaskEvents_GivesUp(t *testing.T) {
	w := &fakeWriter{fails: 100}
	ev := NewTaskEvents(&Producer{w: w, topic: "tasks", log: zap.NewNop()}, nil)
	ev.policy = retry.Policy{Name: "test", Attempts: 2, Backoff: quick{}}

	err := ev.Publish(context.Background(), task.Event{Type: task.EventDeleted, Task: task.Task{ID: 1}})
	assert.Error(t, err)
	assert.Empty(t, w.msgs)
	assert.Equal(t, 98, w.fails)
}
