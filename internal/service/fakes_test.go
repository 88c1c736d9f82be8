package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shreyapuff/petalplanner/internal/domain"
)

type updateCall struct {
	ID        string
	Completed bool
}

// recordingStore records writes and lets the test drive deliveries by hand.
type recordingStore struct {
	mu        sync.Mutex
	creates   []domain.Task
	updates   []updateCall
	nextIDs   []string
	failWrite error
	subs      []*chanSub
}

func (s *recordingStore) CreateTask(_ context.Context, t domain.Task) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return "", s.failWrite
	}
	s.creates = append(s.creates, t)
	id := "generated"
	if len(s.nextIDs) > 0 {
		id, s.nextIDs = s.nextIDs[0], s.nextIDs[1:]
	}
	return id, nil
}

func (s *recordingStore) UpdateCompleted(_ context.Context, id string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return s.failWrite
	}
	s.updates = append(s.updates, updateCall{ID: id, Completed: completed})
	return nil
}

func (s *recordingStore) Subscribe(_ context.Context) (domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &chanSub{ch: make(chan domain.Snapshot, 8)}
	sub.ch <- domain.Snapshot{Tasks: []domain.Task{}, At: time.Now()}
	s.subs = append(s.subs, sub)
	return sub, nil
}

func (s *recordingStore) deliver(snap domain.Snapshot) {
	s.mu.Lock()
	subs := append([]*chanSub(nil), s.subs...)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.send(snap)
	}
}

func (s *recordingStore) createCalls() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Task(nil), s.creates...)
}

func (s *recordingStore) updateCalls() []updateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]updateCall(nil), s.updates...)
}

type chanSub struct {
	mu     sync.Mutex
	ch     chan domain.Snapshot
	closed bool
}

func (c *chanSub) Updates() <-chan domain.Snapshot { return c.ch }

func (c *chanSub) send(snap domain.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.ch <- snap
	}
}

func (c *chanSub) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}

type countingChime struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingChime) Play(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func (c *countingChime) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type failingMirror struct{}

func (failingMirror) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk unavailable")
}

func (failingMirror) Set(context.Context, string, string) error {
	return errors.New("disk unavailable")
}
