package taskstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyapuff/petalplanner/internal/domain"
)

func receive(t *testing.T, sub domain.Subscription) domain.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		require.True(t, ok, "subscription channel closed")
		return snap
	case <-time.After(time.Second):
		t.Fatal("no delivery")
		return domain.Snapshot{}
	}
}

func assertNoDelivery(t *testing.T, sub domain.Subscription) {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		if ok {
			t.Fatalf("unexpected delivery: %+v", snap)
		}
	default:
	}
}

func TestSubscribeDeliversCurrentResultImmediately(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend().WithIDs("t1")
	_, err := backend.InsertTask(ctx, domain.Task{Text: "Water the plants", Mood: domain.MoodSparkly, CreatedAt: time.Now()})
	require.NoError(t, err)

	store := New(backend)
	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()

	select {
	case snap := <-sub.Updates():
		require.NoError(t, snap.Err)
		require.Len(t, snap.Tasks, 1)
		assert.Equal(t, "t1", snap.Tasks[0].ID)
	default:
		t.Fatal("first snapshot must be ready when Subscribe returns")
	}
}

func TestWritesPublishNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	store := New(NewMemoryBackend().WithIDs("a", "b"))

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()
	assert.Empty(t, receive(t, sub).Tasks)

	_, err = store.CreateTask(ctx, domain.Task{Text: "first", Mood: domain.MoodHappy, CreatedAt: base})
	require.NoError(t, err)
	assert.Len(t, receive(t, sub).Tasks, 1)

	_, err = store.CreateTask(ctx, domain.Task{Text: "second", Mood: domain.MoodHappy, CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	snap := receive(t, sub)
	require.Len(t, snap.Tasks, 2)
	assert.Equal(t, "second", snap.Tasks[0].Text)
	assert.Equal(t, "first", snap.Tasks[1].Text)

	require.NoError(t, store.UpdateCompleted(ctx, "a", true))
	snap = receive(t, sub)
	assert.True(t, snap.Tasks[1].Completed)
	assert.Equal(t, "first", snap.Tasks[1].Text)
}

func TestNewerSnapshotReplacesUnreadOne(t *testing.T) {
	ctx := context.Background()
	store := New(NewMemoryBackend())
	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()

	for _, text := range []string{"one", "two", "three"} {
		_, err := store.CreateTask(ctx, domain.Task{Text: text, CreatedAt: time.Now()})
		require.NoError(t, err)
	}

	snap := receive(t, sub)
	assert.Len(t, snap.Tasks, 3)
	assertNoDelivery(t, sub)
}

func TestRefreshPicksUpExternalRemoval(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend().WithIDs("gone")
	_, err := backend.InsertTask(ctx, domain.Task{Text: "temp", CreatedAt: time.Now()})
	require.NoError(t, err)

	store := New(backend)
	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()
	assert.Len(t, receive(t, sub).Tasks, 1)

	backend.Remove("gone")
	store.Refresh(ctx)
	assert.Empty(t, receive(t, sub).Tasks)

	store.Refresh(ctx)
	assertNoDelivery(t, sub)
}

func TestRunPolls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := NewMemoryBackend()
	store := New(backend, WithPollInterval(10*time.Millisecond))
	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()
	receive(t, sub)

	go store.Run(ctx)
	_, err = backend.InsertTask(ctx, domain.Task{Text: "from another client", CreatedAt: time.Now()})
	require.NoError(t, err)

	snap := receive(t, sub)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "from another client", snap.Tasks[0].Text)
}

func TestCancelStopsDeliveries(t *testing.T) {
	ctx := context.Background()
	store := New(NewMemoryBackend())
	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Subscribers())

	sub.Cancel()
	sub.Cancel()
	assert.Equal(t, 0, store.Subscribers())

	_, err = store.CreateTask(ctx, domain.Task{Text: "after cancel", CreatedAt: time.Now()})
	require.NoError(t, err)

	_, ok := <-sub.Updates()
	assert.False(t, ok, "cancelled subscription must not deliver")
}

type flakyBackend struct {
	*MemoryBackend
	mu      sync.Mutex
	failing bool
}

func (f *flakyBackend) ListNewestFirst(ctx context.Context) ([]domain.Task, error) {
	f.mu.Lock()
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return nil, errors.New("unavailable")
	}
	return f.MemoryBackend.ListNewestFirst(ctx)
}

func TestQueryErrorIsDelivered(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend()}
	store := New(backend)

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()
	receive(t, sub)

	backend.setFailing(true)
	store.Refresh(ctx)
	snap := receive(t, sub)
	assert.Error(t, snap.Err)
}

func (f *flakyBackend) setFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func TestRecoveryRepublishesResultLostToError(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend().WithIDs("t1")}
	store := New(backend)

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()
	assert.Empty(t, receive(t, sub).Tasks)

	// The one-task result is left unread, then an error replaces it.
	_, err = store.CreateTask(ctx, domain.Task{Text: "Water the plants", CreatedAt: time.Now()})
	require.NoError(t, err)
	backend.setFailing(true)
	store.Refresh(ctx)
	assert.Error(t, receive(t, sub).Err)

	backend.setFailing(false)
	store.Refresh(ctx)
	snap := receive(t, sub)
	require.NoError(t, snap.Err)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "t1", snap.Tasks[0].ID)

	store.Refresh(ctx)
	assertNoDelivery(t, sub)
}

func TestSubscribeWhileBackendDown(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend().WithIDs("t1"), failing: true}
	store := New(backend, WithClock(func() time.Time { return at }))

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()
	assert.Equal(t, 1, store.Subscribers())

	snap := receive(t, sub)
	assert.Error(t, snap.Err)
	assert.Equal(t, at, snap.At)

	_, err = backend.InsertTask(ctx, domain.Task{Text: "Stretch", CreatedAt: at})
	require.NoError(t, err)
	backend.setFailing(false)
	store.Refresh(ctx)

	snap = receive(t, sub)
	require.NoError(t, snap.Err)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "Stretch", snap.Tasks[0].Text)
	assert.Equal(t, at, snap.At)
}

func TestUpdateUnknownTask(t *testing.T) {
	store := New(NewMemoryBackend())
	err := store.UpdateCompleted(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}
