package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrRecorderUnavailable is returned when no capture command can be run.
var ErrRecorderUnavailable = errors.New("audio recording unavailable")

// ErrPlayerUnavailable is returned when no playback command can be run.
var ErrPlayerUnavailable = errors.New("audio playback unavailable")

// Player plays a clip to completion.
type Player interface {
	Play(ctx context.Context, clip Clip) error
}

// CommandPlayer plays clips by writing a temporary WAV file and handing
// it to an external program. The file is removed once playback ends.
type CommandPlayer struct {
	// Command is the program and arguments; the file path is appended.
	Command []string
}

// NewCommandPlayer parses a command line such as "aplay -q". An empty
// line selects the platform default.
func NewCommandPlayer(cmdline string) *CommandPlayer {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		fields = defaultPlayCommand()
	}
	return &CommandPlayer{Command: fields}
}

func defaultPlayCommand() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"afplay"}
	default:
		return []string{"aplay", "-q"}
	}
}

func (p *CommandPlayer) Play(ctx context.Context, clip Clip) error {
	if clip.Empty() {
		return nil
	}
	if len(p.Command) == 0 {
		return ErrPlayerUnavailable
	}
	bin, err := exec.LookPath(p.Command[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlayerUnavailable, err)
	}

	wav, err := clip.WAV()
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "nalibo-*.wav")
	if err != nil {
		return fmt.Errorf("create temp audio file: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.Write(wav); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp audio file: %w", err)
	}

	args := append(append([]string{}, p.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("play audio: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
