package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
)

type SubmitStatus string

const (
	SubmitCreated          SubmitStatus = "created"
	SubmitIgnoredEmpty     SubmitStatus = "ignored_empty"
	SubmitIgnoredDuplicate SubmitStatus = "ignored_duplicate"
	SubmitFailed           SubmitStatus = "failed"
)

// SubmitResult reports what happened to a submission. Draft is what the
// entry field should hold afterwards: empty after a create, the raw input
// otherwise so the user can edit or retry.
type SubmitResult struct {
	Status SubmitStatus `json:"status"`
	TaskID string       `json:"taskId,omitempty"`
	Draft  string       `json:"draft"`
}

// TaskEntryController validates and submits new tasks.
type TaskEntryController struct {
	store domain.TaskStore
	now   func() time.Time
}

func NewTaskEntryController(store domain.TaskStore, now func() time.Time) *TaskEntryController {
	if now == nil {
		now = time.Now
	}
	return &TaskEntryController{store: store, now: now}
}

// Submit creates a task unless the trimmed text is empty or already present
// (case-insensitively) in current. The new task shows up only through the
// store subscription.
func (c *TaskEntryController) Submit(ctx context.Context, rawText string, mood domain.Mood, current []domain.Task) (SubmitResult, error) {
	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return SubmitResult{Status: SubmitIgnoredEmpty, Draft: rawText}, nil
	}
	for _, t := range current {
		if domain.SameText(t.Text, trimmed) {
			logger.DebugLog(ctx, "ignoring duplicate task %q", trimmed)
			return SubmitResult{Status: SubmitIgnoredDuplicate, Draft: rawText}, nil
		}
	}

	if !mood.Valid() {
		mood = domain.DefaultMood
	}

	id, err := c.store.CreateTask(ctx, domain.Task{
		Text:      trimmed,
		Mood:      mood,
		Completed: false,
		CreatedAt: c.now().UTC(),
	})
	if err != nil {
		logger.ErrorLog(ctx, "failed to add task %q: %v", trimmed, err)
		return SubmitResult{Status: SubmitFailed, Draft: rawText}, fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}

	logger.InfoLog(ctx, "task %s planted with mood %s", id, mood)
	return SubmitResult{Status: SubmitCreated, TaskID: id}, nil
}
