package domain

import (
	"context"
	"time"
)

// Snapshot is one delivery of the "all tasks, newest first" query.
// A non-nil Err means the query failed and Tasks must be ignored.
type Snapshot struct {
	Tasks []Task
	Err   error
	At    time.Time
}

// Subscription is a live query. Updates already holds the current result
// when Subscribe returns. After Cancel the channel is closed and nothing
// more is delivered.
type Subscription interface {
	Updates() <-chan Snapshot
	Cancel()
}

// TaskStore is the document store holding tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, t Task) (string, error)
	UpdateCompleted(ctx context.Context, id string, completed bool) error
	Subscribe(ctx context.Context) (Subscription, error)
}

// LocalMirror is the local key-value cache.
type LocalMirror interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Chime plays the completion sound.
type Chime interface {
	Play(ctx context.Context) error
}
