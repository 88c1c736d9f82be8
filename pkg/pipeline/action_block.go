package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// ActionFunc defines the function signature for actions
type ActionFunc[T any] func(T) error

// ActionBlock runs an action for each posted message on a fixed set of workers.
type ActionBlock[T any] struct {
	*BaseBlock
	input   chan T
	action  ActionFunc[T]
	options BlockOptions

	// inputMu guards closing input against concurrent sends.
	inputMu sync.RWMutex
	closed  bool
}

// NewActionBlock starts the workers. Default: unbuffered, one worker, no retry.
func NewActionBlock[T any](action ActionFunc[T], opts ...Option) *ActionBlock[T] {
	options := applyOptions(opts)

	b := &ActionBlock[T]{
		BaseBlock: NewBaseBlock(),
		input:     make(chan T, options.BufferSize),
		action:    action,
		options:   options,
	}

	b.wg.Add(options.ConcurrencyDegree)
	for i := 0; i < options.ConcurrencyDegree; i++ {
		go b.process()
	}
	b.SignalCompletion()

	return b
}

// Post enqueues message without blocking. It returns false when the block is
// completed or the buffer is full.
func (b *ActionBlock[T]) Post(message T) bool {
	b.inputMu.RLock()
	defer b.inputMu.RUnlock()
	if b.closed || b.IsCompleted() {
		return false
	}

	select {
	case b.input <- message:
		return true
	default:
		return false
	}
}

func (b *ActionBlock[T]) process() {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.Fault(fmt.Errorf("panic in ActionBlock: %v", r))
		}
	}()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-b.input:
			if !ok {
				return
			}

			if err := b.executeAction(msg); err != nil {
				if b.options.ErrorHandler != nil && b.options.ErrorHandler(err) {
					continue
				}
				b.Fault(err)
				return
			}
		}
	}
}

// executeAction executes the action function with retry logic if configured
func (b *ActionBlock[T]) executeAction(msg T) error {
	if b.options.RetryPolicy == nil || b.options.RetryPolicy.MaxRetries <= 1 {
		return b.action(msg)
	}

	var lastErr error
	maxAttempts := b.options.RetryPolicy.MaxRetries

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := b.action(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}

		if b.options.RetryPolicy.Backoff > 0 {
			backoff := time.Duration(attempt+1) * b.options.RetryPolicy.Backoff
			select {
			case <-time.After(backoff):
			case <-b.ctx.Done():
				return b.ctx.Err()
			}
		}
	}

	return lastErr
}

// Complete stops accepting messages; workers drain what is queued and exit.
func (b *ActionBlock[T]) Complete() {
	b.inputMu.Lock()
	defer b.inputMu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.markCompleted()
	close(b.input)
}
