package task

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("task not found")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid argument")
)

const (
	MaxTitleLen  = 255
	MaxStatusLen = 30
)

type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	UserID      int64  `json:"user_id"`
}

// Filter selects the tasks of one user, optionally narrowed to a status.
type Filter struct {
	UserID int64
	Status string
}

type EventType string

const (
	EventCreated EventType = "task.created"
	EventUpdated EventType = "task.updated"
	EventDeleted EventType = "task.deleted"
)

type Event struct {
	Type       EventType `json:"type"`
	Task       Task      `json:"task"`
	OccurredAt time.Time `json:"occurred_at"`
}
