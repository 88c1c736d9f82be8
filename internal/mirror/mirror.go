package mirror

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shreyapuff/petalplanner/internal/domain"
)

const (
	TasksKey = "petalplanner-tasks"
	MoodKey  = "petalplanner-mood"
)

// SaveTasks writes a task snapshot under TasksKey as a JSON array.
func SaveTasks(ctx context.Context, m domain.LocalMirror, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	return m.Set(ctx, TasksKey, string(data))
}

// LoadTasks reads the cached snapshot. ok is false when nothing usable is cached.
func LoadTasks(ctx context.Context, m domain.LocalMirror) (tasks []domain.Task, ok bool, err error) {
	raw, found, err := m.Get(ctx, TasksKey)
	if err != nil || !found {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, false, fmt.Errorf("decode cached tasks: %w", err)
	}
	return tasks, true, nil
}
