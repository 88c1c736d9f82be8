package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
	"github.com/shreyapuff/petalplanner/internal/mirror"
)

// ViewState is what the task list renders.
type ViewState struct {
	Tasks []domain.Task `json:"tasks"`
	// Live is true once the subscription has delivered at least once.
	Live bool `json:"live"`
	// FromCache is true while Tasks is the placeholder read from the mirror.
	FromCache bool `json:"fromCache"`
}

// TaskListViewModel owns the in-memory task collection. Only the reducer
// goroutine started by Mount writes it; readers get copies.
type TaskListViewModel struct {
	mirror domain.LocalMirror

	mu        sync.RWMutex
	tasks     []domain.Task
	live      bool
	fromCache bool
	unmounted bool

	sub  domain.Subscription
	done chan struct{}
}

func NewTaskListViewModel(m domain.LocalMirror) *TaskListViewModel {
	return &TaskListViewModel{mirror: m, tasks: []domain.Task{}}
}

// Mount paints the cached snapshot, subscribes, applies the first delivery
// and starts the reducer.
func (vm *TaskListViewModel) Mount(ctx context.Context, store domain.TaskStore) error {
	vm.mu.Lock()
	if vm.sub != nil {
		vm.mu.Unlock()
		return errors.New("view model already mounted")
	}
	vm.mu.Unlock()

	vm.paintFromCache(ctx)

	sub, err := store.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to tasks: %w", err)
	}

	vm.mu.Lock()
	vm.sub = sub
	vm.done = make(chan struct{})
	vm.mu.Unlock()

	if first, ok := <-sub.Updates(); ok {
		vm.apply(ctx, first)
	}
	go vm.run(context.WithoutCancel(ctx), sub)
	return nil
}

func (vm *TaskListViewModel) paintFromCache(ctx context.Context) {
	cached, ok, err := mirror.LoadTasks(ctx, vm.mirror)
	if err != nil {
		logger.WarnLog(ctx, "ignoring cached tasks: %v", err)
		return
	}
	if !ok {
		return
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.live {
		return
	}
	vm.tasks = cached
	vm.fromCache = true
}

func (vm *TaskListViewModel) run(ctx context.Context, sub domain.Subscription) {
	defer close(vm.done)
	for snap := range sub.Updates() {
		vm.apply(ctx, snap)
	}
}

// apply is the reducer: a good snapshot replaces the collection verbatim and
// is written to the mirror; a failed one is logged and changes nothing.
func (vm *TaskListViewModel) apply(ctx context.Context, snap domain.Snapshot) {
	if snap.Err != nil {
		logger.ErrorLog(ctx, "task subscription error, keeping %d tasks: %v", len(vm.Tasks()), snap.Err)
		return
	}

	tasks := domain.CloneTasks(snap.Tasks)
	if tasks == nil {
		tasks = []domain.Task{}
	}

	vm.mu.Lock()
	if vm.unmounted {
		vm.mu.Unlock()
		return
	}
	vm.tasks = tasks
	vm.live = true
	vm.fromCache = false
	vm.mu.Unlock()

	if err := mirror.SaveTasks(ctx, vm.mirror, tasks); err != nil {
		logger.WarnLog(ctx, "failed to mirror tasks: %v", err)
	}
}

// Unmount cancels the subscription and waits for the reducer to stop.
func (vm *TaskListViewModel) Unmount() {
	vm.mu.Lock()
	vm.unmounted = true
	sub, done := vm.sub, vm.done
	vm.mu.Unlock()

	if sub == nil {
		return
	}
	sub.Cancel()
	<-done
}

// Tasks returns a copy of the current collection.
func (vm *TaskListViewModel) Tasks() []domain.Task {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return domain.CloneTasks(vm.tasks)
}

func (vm *TaskListViewModel) State() ViewState {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return ViewState{
		Tasks:     domain.CloneTasks(vm.tasks),
		Live:      vm.live,
		FromCache: vm.fromCache,
	}
}
