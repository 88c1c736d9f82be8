package pipeline

import (
	"time"
)

// BlockOptions configures the behavior of pipeline blocks
type BlockOptions struct {
	// RetryPolicy defines the retry behavior for operations that can fail
	RetryPolicy *RetryPolicy

	// ConcurrencyDegree specifies the number of concurrent workers processing messages
	// Default is 1 (sequential processing)
	ConcurrencyDegree int

	// BufferSize specifies the capacity of the input channel
	BufferSize int

	// ErrorHandler receives action errors. When it returns true the error is
	// considered handled and the block keeps running; otherwise the block faults.
	ErrorHandler func(error) bool
}

// RetryPolicy defines the retry policy for operations
type RetryPolicy struct {
	// MaxRetries is the maximum number of attempts, including the first one
	MaxRetries int

	// Backoff is multiplied by the attempt number between attempts
	Backoff time.Duration
}

// Option is a function that configures BlockOptions
type Option func(*BlockOptions)

// DefaultBlockOptions returns the default block options
func DefaultBlockOptions() BlockOptions {
	return BlockOptions{
		ConcurrencyDegree: 1,
	}
}

// WithRetryPolicy configures a retry policy for the block
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *BlockOptions) {
		o.RetryPolicy = &policy
	}
}

// WithConcurrencyDegree sets the number of concurrent workers
func WithConcurrencyDegree(degree int) Option {
	return func(o *BlockOptions) {
		if degree > 0 {
			o.ConcurrencyDegree = degree
		}
	}
}

// WithBufferSize sets the buffer size for the input channel
func WithBufferSize(size int) Option {
	return func(o *BlockOptions) {
		if size > 0 {
			o.BufferSize = size
		}
	}
}

// WithErrorHandler installs a handler for action errors
func WithErrorHandler(h func(error) bool) Option {
	return func(o *BlockOptions) {
		o.ErrorHandler = h
	}
}

func applyOptions(opts []Option) BlockOptions {
	options := DefaultBlockOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
