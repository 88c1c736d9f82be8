package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestActionBlock_Concurrency(t *testing.T) {
	const numWorkers = 5
	const numMessages = 100

	var processedCount int32
	var mu sync.Mutex
	processed := make(map[int]bool)

	action := NewActionBlock(
		func(input int) error {
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&processedCount, 1)
			mu.Lock()
			processed[input] = true
			mu.Unlock()
			return nil
		},
		WithConcurrencyDegree(numWorkers),
		WithBufferSize(numMessages),
	)

	for i := 0; i < numMessages; i++ {
		if !action.Post(i) {
			t.Fatalf("Failed to post message %d", i)
		}
	}
	action.Complete()

	if err := WaitAll(action); err != nil {
		t.Fatalf("WaitAll failed: %v", err)
	}

	if got := atomic.LoadInt32(&processedCount); got != numMessages {
		t.Errorf("Expected %d messages processed, got %d", numMessages, got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(processed) != numMessages {
		t.Errorf("Expected %d unique messages, got %d", numMessages, len(processed))
	}
}

func TestActionBlock_SequentialKeepsOrder(t *testing.T) {
	const numMessages = 10

	var seen []int
	action := NewActionBlock(func(input int) error {
		seen = append(seen, input)
		return nil
	}, WithBufferSize(numMessages))

	for i := 0; i < numMessages; i++ {
		if !action.Post(i) {
			t.Fatalf("Failed to post message %d", i)
		}
	}
	action.Complete()

	if err := action.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("Expected message %d at position %d, got %d", i, i, v)
		}
	}
}

func TestActionBlock_WithRetry(t *testing.T) {
	var callCount int32
	action := NewActionBlock(
		func(input string) error {
			if atomic.AddInt32(&callCount, 1) < 3 {
				return errors.New("temporary error")
			}
			return nil
		},
		WithRetryPolicy(RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}),
		WithBufferSize(1),
	)

	if !action.Post("test") {
		t.Fatal("Failed to post message to action block")
	}
	action.Complete()

	if err := WaitAll(action); err != nil {
		t.Fatalf("WaitAll failed: %v", err)
	}
	if got := atomic.LoadInt32(&callCount); got != 3 {
		t.Errorf("Expected 3 calls, got %d", got)
	}
}

func TestActionBlock_FaultStopsBlock(t *testing.T) {
	action := NewActionBlock(
		func(input string) error { return errors.New("permanent error") },
		WithRetryPolicy(RetryPolicy{MaxRetries: 2}),
		WithBufferSize(1),
	)

	if !action.Post("test") {
		t.Fatal("Failed to post message to action block")
	}

	err := action.Wait()
	if err == nil || err.Error() != "permanent error" {
		t.Fatalf("Expected permanent error, got %v", err)
	}
	if action.Post("again") {
		t.Error("Faulted block must reject messages")
	}
}

func TestActionBlock_ErrorHandlerKeepsRunning(t *testing.T) {
	var handled, succeeded int32
	action := NewActionBlock(
		func(input int) error {
			if input%2 == 0 {
				return errors.New("even")
			}
			atomic.AddInt32(&succeeded, 1)
			return nil
		},
		WithBufferSize(4),
		WithErrorHandler(func(error) bool {
			atomic.AddInt32(&handled, 1)
			return true
		}),
	)

	for i := 0; i < 4; i++ {
		if !action.Post(i) {
			t.Fatalf("Failed to post message %d", i)
		}
	}
	action.Complete()

	if err := action.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if handled != 2 || succeeded != 2 {
		t.Errorf("Expected 2 handled and 2 succeeded, got %d and %d", handled, succeeded)
	}
}

func TestActionBlock_PostAfterComplete(t *testing.T) {
	action := NewActionBlock(func(int) error { return nil }, WithBufferSize(1))
	action.Complete()
	if action.Post(1) {
		t.Error("Completed block must reject messages")
	}
	if err := action.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestActionBlock_PostRacesComplete(t *testing.T) {
	for round := 0; round < 50; round++ {
		var processed int32
		action := NewActionBlock(func(int) error {
			atomic.AddInt32(&processed, 1)
			return nil
		}, WithBufferSize(64))

		var accepted int32
		var wg sync.WaitGroup
		for p := 0; p < 8; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 16; i++ {
					if action.Post(p*16 + i) {
						atomic.AddInt32(&accepted, 1)
					}
				}
			}(p)
		}
		action.Complete()
		wg.Wait()

		if err := action.Wait(); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
		if got, want := atomic.LoadInt32(&processed), atomic.LoadInt32(&accepted); got != want {
			t.Fatalf("Round %d: accepted %d messages but processed %d", round, want, got)
		}
	}
}

func TestRetryPolicy_DefaultValues(t *testing.T) {
	opts := DefaultBlockOptions()
	if opts.RetryPolicy != nil {
		t.Error("Expected no retry policy by default")
	}
	if opts.ConcurrencyDegree != 1 {
		t.Errorf("Expected concurrency degree 1, got %d", opts.ConcurrencyDegree)
	}
	if opts.BufferSize != 0 {
		t.Errorf("Expected unbuffered input, got %d", opts.BufferSize)
	}
}
