package chime

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
)

// CommandPlayer plays the completion sound with an external player, e.g.
// "afplay" or "paplay". The sound path is appended as the last argument.
type CommandPlayer struct {
	name  string
	args  []string
	sound string
}

var _ domain.Chime = (*CommandPlayer)(nil)

// NewCommandPlayer splits command on whitespace.
func NewCommandPlayer(command, soundPath string) (*CommandPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty chime command")
	}
	return &CommandPlayer{name: fields[0], args: fields[1:], sound: soundPath}, nil
}

func (p *CommandPlayer) Play(ctx context.Context) error {
	args := append(append([]string(nil), p.args...), p.sound)
	out, err := exec.CommandContext(ctx, p.name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("play %s: %w (%s)", p.sound, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NopPlayer only logs. Used when no player command is configured.
type NopPlayer struct{}

func (NopPlayer) Play(ctx context.Context) error {
	logger.DebugLog(ctx, "chime: no player configured")
	return nil
}
