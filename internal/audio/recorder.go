package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Recorder captures microphone audio.
type Recorder interface {
	Record(ctx context.Context, d time.Duration) (Clip, error)
}

// CommandRecorder captures audio by running an external program that
// writes a WAV file. The placeholders {out} and {secs} in Command are
// replaced with the output path and the duration in whole seconds.
type CommandRecorder struct {
	Command []string
}

// NewCommandRecorder parses a command line. An empty line selects arecord.
func NewCommandRecorder(cmdline string) *CommandRecorder {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		fields = []string{"arecord", "-q", "-f", "S16_LE", "-r", "24000", "-c", "1", "-d", "{secs}", "{out}"}
	}
	return &CommandRecorder{Command: fields}
}

func (r *CommandRecorder) Record(ctx context.Context, d time.Duration) (Clip, error) {
	if len(r.Command) == 0 {
		return Clip{}, ErrRecorderUnavailable
	}
	bin, err := exec.LookPath(r.Command[0])
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrRecorderUnavailable, err)
	}

	dir, err := os.MkdirTemp("", "nalibo-rec-")
	if err != nil {
		return Clip{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	out := filepath.Join(dir, "take.wav")

	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	args := make([]string, 0, len(r.Command)-1)
	for _, a := range r.Command[1:] {
		a = strings.ReplaceAll(a, "{out}", out)
		a = strings.ReplaceAll(a, "{secs}", strconv.Itoa(secs))
		args = append(args, a)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if msg, err := cmd.CombinedOutput(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Clip{}, fmt.Errorf("%w: %s", ErrRecorderUnavailable, strings.TrimSpace(string(msg)))
		}
		return Clip{}, fmt.Errorf("record audio: %w", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return Clip{}, fmt.Errorf("read recording: %w", err)
	}
	if len(data) == 0 {
		return Clip{}, fmt.Errorf("%w: empty recording", ErrRecorderUnavailable)
	}
	return Clip{Data: data, Format: FormatWAV, SampleRate: DefaultSampleRate, Channels: 1}, nil
}
