package chime

import (
	"context"
	"time"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
	"github.com/shreyapuff/petalplanner/pkg/pipeline"
)

const (
	queueSize   = 8
	playTimeout = 10 * time.Second
)

// Async plays on a background worker. Play never blocks and never fails:
// a full queue drops the request and playback errors are only logged.
type Async struct {
	block *pipeline.ActionBlock[context.Context]
}

var _ domain.Chime = (*Async)(nil)

func NewAsync(player domain.Chime) *Async {
	play := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, playTimeout)
		defer cancel()
		return player.Play(ctx)
	}
	swallow := func(err error) bool {
		logger.WarnLog(context.Background(), "chime playback failed: %v", err)
		return true
	}

	return &Async{
		block: pipeline.NewActionBlock[context.Context](play,
			pipeline.WithBufferSize(queueSize),
			pipeline.WithErrorHandler(swallow),
		),
	}
}

func (a *Async) Play(ctx context.Context) error {
	// The request context ends with the HTTP request; playback must outlive it.
	detached := logger.WithRequestID(context.Background(), logger.RequestID(ctx))
	if !a.block.Post(detached) {
		logger.DebugLog(ctx, "chime queue full, dropping")
	}
	return nil
}

// Close waits for queued plays to finish.
func (a *Async) Close() error {
	a.block.Complete()
	return a.block.Wait()
}
