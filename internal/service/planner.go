package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shreyapuff/petalplanner/internal/domain"
)

const defaultSearchLimit = 20

// TaskSearcher finds tasks by text.
type TaskSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Task, error)
}

type PlannerDeps struct {
	Store    domain.TaskStore
	Mirror   domain.LocalMirror
	Chime    domain.Chime
	Searcher TaskSearcher
	Now      func() time.Time
}

// Planner is one user's session: a mounted task list with its controllers.
type Planner struct {
	store      domain.TaskStore
	viewModel  *TaskListViewModel
	entry      *TaskEntryController
	completion *TaskCompletionController
	mood       *MoodPicker
	searcher   TaskSearcher
}

// OpenPlanner restores the mood, mounts the task list and returns a ready session.
func OpenPlanner(ctx context.Context, deps PlannerDeps) (*Planner, error) {
	p := &Planner{
		store:      deps.Store,
		viewModel:  NewTaskListViewModel(deps.Mirror),
		entry:      NewTaskEntryController(deps.Store, deps.Now),
		completion: NewTaskCompletionController(deps.Store, deps.Chime),
		mood:       NewMoodPicker(ctx, deps.Mirror),
		searcher:   deps.Searcher,
	}
	if err := p.viewModel.Mount(ctx, deps.Store); err != nil {
		return nil, err
	}
	return p, nil
}

// AddTask submits raw text with the current mood against the current list.
func (p *Planner) AddTask(ctx context.Context, raw string) (SubmitResult, error) {
	return p.entry.Submit(ctx, raw, p.mood.Current(), p.viewModel.Tasks())
}

// ToggleTask toggles the task with id as it appears in the current list.
func (p *Planner) ToggleTask(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, domain.ErrNotPersisted
	}
	task, ok := domain.FindTask(p.viewModel.Tasks(), id)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return p.completion.Toggle(ctx, task)
}

func (p *Planner) Tasks() []domain.Task {
	return p.viewModel.Tasks()
}

func (p *Planner) State() ViewState {
	return p.viewModel.State()
}

// Garden projects the current list; it is recomputed on every call.
func (p *Planner) Garden() domain.Garden {
	return domain.ProjectGarden(p.viewModel.Tasks())
}

func (p *Planner) Mood() domain.Mood {
	return p.mood.Current()
}

func (p *Planner) SelectMood(ctx context.Context, emoji string) error {
	return p.mood.Select(ctx, emoji)
}

// Subscribe opens an extra live subscription on the underlying store.
func (p *Planner) Subscribe(ctx context.Context) (domain.Subscription, error) {
	return p.store.Subscribe(ctx)
}

// Search uses the search index when one is configured, otherwise a
// case-insensitive substring match over the current list.
func (p *Planner) Search(ctx context.Context, query string, limit int) ([]domain.Task, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if query == "" {
		return []domain.Task{}, nil
	}
	if p.searcher != nil {
		return p.searcher.Search(ctx, query, limit)
	}
	return MatchTasks(p.viewModel.Tasks(), query, limit), nil
}

// Close unmounts the task list.
func (p *Planner) Close() {
	p.viewModel.Unmount()
}

// MatchTasks keeps tasks whose text contains query, ignoring case.
func MatchTasks(tasks []domain.Task, query string, limit int) []domain.Task {
	needle := strings.ToLower(query)
	out := []domain.Task{}
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Text), needle) {
			out = append(out, t)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
