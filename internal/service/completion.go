package service

import (
	"context"
	"fmt"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
)

// TaskCompletionController flips a task's completed flag.
type TaskCompletionController struct {
	store domain.TaskStore
	chime domain.Chime
}

func NewTaskCompletionController(store domain.TaskStore, chime domain.Chime) *TaskCompletionController {
	return &TaskCompletionController{store: store, chime: chime}
}

// Toggle writes !task.Completed, computed from the task as the caller last
// saw it. A task without an id is ignored. Completing a task plays the chime;
// chime errors never reach the caller.
func (c *TaskCompletionController) Toggle(ctx context.Context, task domain.Task) (bool, error) {
	if !task.Persisted() {
		return false, nil
	}

	next := !task.Completed
	if err := c.store.UpdateCompleted(ctx, task.ID, next); err != nil {
		logger.ErrorLog(ctx, "failed to toggle task %s: %v", task.ID, err)
		return false, fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}

	if !task.Completed && c.chime != nil {
		if err := c.chime.Play(ctx); err != nil {
			logger.DebugLog(ctx, "chime failed: %v", err)
		}
	}
	return true, nil
}
