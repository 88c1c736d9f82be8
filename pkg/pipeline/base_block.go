package pipeline

import (
	"context"
	"sync"
)

// BaseBlock holds the lifecycle shared by every block: a cancellable
// context, the worker wait group and the first fault.
type BaseBlock struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	err       error
	completed bool
	done      chan struct{}
	doneOnce  sync.Once
}

func NewBaseBlock() *BaseBlock {
	ctx, cancel := context.WithCancel(context.Background())
	return &BaseBlock{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Fault records err (the first one wins) and stops the block.
func (b *BaseBlock) Fault(err error) {
	b.mu.Lock()
	if b.err == nil {
		b.err = err
	}
	b.completed = true
	b.mu.Unlock()
	b.cancel()
}

// IsCompleted reports whether the block stopped accepting messages.
func (b *BaseBlock) IsCompleted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.completed
}

func (b *BaseBlock) markCompleted() {
	b.mu.Lock()
	b.completed = true
	b.mu.Unlock()
}

// SignalCompletion closes Done once all workers have returned.
func (b *BaseBlock) SignalCompletion() {
	go func() {
		b.wg.Wait()
		b.doneOnce.Do(func() { close(b.done) })
	}()
}

// Done is closed when every worker has exited.
func (b *BaseBlock) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the block finishes and returns its fault, if any.
func (b *BaseBlock) Wait() error {
	<-b.done
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Waiter is anything that can be waited on for completion.
type Waiter interface {
	Wait() error
}

// WaitAll waits for every block and returns the first fault.
func WaitAll(blocks ...Waiter) error {
	var first error
	for _, b := range blocks {
		if err := b.Wait(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
