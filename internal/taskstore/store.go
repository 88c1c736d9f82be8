package taskstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
)

// Backend is a plain document store: it can write tasks and list them
// newest first, but has no change notification of its own.
type Backend interface {
	InsertTask(ctx context.Context, t domain.Task) (string, error)
	SetCompleted(ctx context.Context, id string, completed bool) error
	ListNewestFirst(ctx context.Context) ([]domain.Task, error)
}

// Option configures a Store.
type Option func(*Store)

// WithPollInterval sets how often Run re-reads the backend.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithClock overrides the delivery timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store adds live queries on top of a Backend. Writes made through the
// Store publish immediately; writes made elsewhere are picked up by Run.
type Store struct {
	backend      Backend
	pollInterval time.Duration
	now          func() time.Time

	mu      sync.Mutex
	subs    map[uint64]*subscription
	nextSub uint64
	last    []domain.Task
	primed  bool
}

var _ domain.TaskStore = (*Store)(nil)

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:      backend,
		pollInterval: 2 * time.Second,
		now:          time.Now,
		subs:         make(map[uint64]*subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTask writes t and returns the id assigned by the backend.
func (s *Store) CreateTask(ctx context.Context, t domain.Task) (string, error) {
	id, err := s.backend.InsertTask(ctx, t)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	s.Refresh(ctx)
	return id, nil
}

// UpdateCompleted sets only the completed field of task id.
func (s *Store) UpdateCompleted(ctx context.Context, id string, completed bool) error {
	if err := s.backend.SetCompleted(ctx, id, completed); err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	s.Refresh(ctx)
	return nil
}

// Subscribe queries the backend and returns a subscription whose channel
// already holds the result. A failed query is delivered as an error
// snapshot and the subscription stays registered, so the next successful
// Refresh reaches it.
func (s *Store) Subscribe(ctx context.Context) (domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	sub := &subscription{
		id:    s.nextSub,
		ch:    make(chan domain.Snapshot, 1),
		store: s,
	}

	tasks, err := s.backend.ListNewestFirst(ctx)
	if err != nil {
		logger.WarnLog(ctx, "task query failed on subscribe: %v", err)
		s.forget()
		s.subs[sub.id] = sub
		sub.offer(domain.Snapshot{Err: fmt.Errorf("subscribe: %w", err), At: s.now()})
		return sub, nil
	}
	if !s.primed || !reflect.DeepEqual(tasks, s.last) {
		s.remember(tasks)
		s.publish(domain.Snapshot{Tasks: tasks, At: s.now()})
	}

	s.subs[sub.id] = sub
	sub.offer(domain.Snapshot{Tasks: domain.CloneTasks(tasks), At: s.now()})
	return sub, nil
}

// Refresh re-reads the backend and publishes to every subscriber when the
// result differs from the last one published. Query failures are published
// as error deliveries; an error may replace an unread result in a mailbox, so
// the next successful query is always published.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.backend.ListNewestFirst(ctx)
	if err != nil {
		logger.WarnLog(ctx, "task query failed: %v", err)
		s.forget()
		s.publish(domain.Snapshot{Err: err, At: s.now()})
		return
	}
	if s.primed && reflect.DeepEqual(tasks, s.last) {
		return
	}
	s.remember(tasks)
	s.publish(domain.Snapshot{Tasks: tasks, At: s.now()})
}

// Run polls the backend until ctx is done.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) remember(tasks []domain.Task) {
	s.last = domain.CloneTasks(tasks)
	s.primed = true
}

func (s *Store) forget() {
	s.last = nil
	s.primed = false
}

// publish must be called with s.mu held.
func (s *Store) publish(snap domain.Snapshot) {
	for _, sub := range s.subs {
		out := snap
		out.Tasks = domain.CloneTasks(snap.Tasks)
		sub.offer(out)
	}
}

func (s *Store) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// subscription has a one-slot mailbox: a newer snapshot replaces an unread one.
type subscription struct {
	id    uint64
	ch    chan domain.Snapshot
	store *Store

	mu     sync.Mutex
	closed bool
}

func (sub *subscription) Updates() <-chan domain.Snapshot {
	return sub.ch
}

func (sub *subscription) offer(snap domain.Snapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap
}

func (sub *subscription) Cancel() {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.closed = true
	select {
	case <-sub.ch:
	default:
	}
	close(sub.ch)
	sub.mu.Unlock()

	sub.store.remove(sub.id)
}
