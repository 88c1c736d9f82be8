package taskstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shreyapuff/petalplanner/internal/domain"
)

var ErrNotFound = errors.New("task not found")

// MemoryBackend keeps tasks in process memory. It is the default store for
// local runs and the backend used by tests.
type MemoryBackend struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	newID func() string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		tasks: make(map[string]domain.Task),
		newID: func() string { return uuid.NewString() },
	}
}

// WithIDs makes the backend hand out the given ids in order before falling
// back to random ones.
func (m *MemoryBackend) WithIDs(ids ...string) *MemoryBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := append([]string(nil), ids...)
	m.newID = func() string {
		if len(queue) == 0 {
			return uuid.NewString()
		}
		id := queue[0]
		queue = queue[1:]
		return id
	}
	return m
}

func (m *MemoryBackend) InsertTask(_ context.Context, t domain.Task) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.newID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.tasks[t.ID] = t
	return t.ID, nil
}

func (m *MemoryBackend) SetCompleted(_ context.Context, id string, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return ErrNotFound
	}
	t.Completed = completed
	m.tasks[id] = t
	return nil
}

func (m *MemoryBackend) ListNewestFirst(_ context.Context) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Remove deletes a task behind the Store's back, the way an operator
// editing the database would.
func (m *MemoryBackend) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
}
