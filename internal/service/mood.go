package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
	"github.com/shreyapuff/petalplanner/internal/mirror"
)

// MoodPicker holds the selected mood and persists it to the mirror.
type MoodPicker struct {
	mirror domain.LocalMirror

	mu      sync.RWMutex
	current domain.Mood
}

// NewMoodPicker restores the saved mood, falling back to the default.
func NewMoodPicker(ctx context.Context, m domain.LocalMirror) *MoodPicker {
	p := &MoodPicker{mirror: m, current: domain.DefaultMood}

	raw, ok, err := m.Get(ctx, mirror.MoodKey)
	switch {
	case err != nil:
		logger.WarnLog(ctx, "cannot read saved mood: %v", err)
	case ok:
		if mood, err := domain.ParseMood(raw); err == nil {
			p.current = mood
		}
	}
	return p
}

// Select validates emoji and saves it before returning.
func (p *MoodPicker) Select(ctx context.Context, emoji string) error {
	mood, err := domain.ParseMood(emoji)
	if err != nil {
		return fmt.Errorf("%w: %q", err, emoji)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.mirror.Set(ctx, mirror.MoodKey, string(mood)); err != nil {
		return fmt.Errorf("save mood: %w", err)
	}
	p.current = mood
	return nil
}

func (p *MoodPicker) Current() domain.Mood {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}
