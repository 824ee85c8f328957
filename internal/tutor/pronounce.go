package tutor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/llm"
)

const pronounceTemplate = "Say the following Nalibo word using these phonetics (%s): %s"

// Pronouncer synthesizes vocabulary audio and caches it on disk.
type Pronouncer struct {
	synth    llm.Synthesizer
	cacheDir string
	logger   *zap.Logger
}

// NewPronouncer creates a Pronouncer. synth may be nil, in which case
// no audio is ever produced. An empty cacheDir disables caching.
func NewPronouncer(synth llm.Synthesizer, cacheDir string, logger *zap.Logger) *Pronouncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pronouncer{synth: synth, cacheDir: cacheDir, logger: logger}
}

// Available reports whether a speech backend is configured.
func (p *Pronouncer) Available() bool {
	return p != nil && p.synth != nil
}

// Synthesize returns audio for word. Failures are logged and reported
// as ok == false; the caller simply plays nothing.
func (p *Pronouncer) Synthesize(ctx context.Context, word string) (clip audio.Clip, ok bool) {
	word = strings.TrimSpace(word)
	if !p.Available() || word == "" {
		return audio.Clip{}, false
	}

	path := p.cachePath(word)
	if path != "" {
		if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
			return audio.Clip{Data: data, Format: audio.FormatWAV}, true
		}
	}

	ctx = llm.WithSubject(llm.WithPurpose(ctx, PurposePronounce), word)
	resp, err := p.synth.Synthesize(ctx, llm.SpeechRequest{
		Text: fmt.Sprintf(pronounceTemplate, curriculum.Phonetics, word),
	})
	if err != nil {
		p.logger.Warn("pronunciation failed", zap.String("word", word), zap.Error(err))
		return audio.Clip{}, false
	}

	clip = clipFromSpeech(resp)
	if path != "" {
		p.store(path, clip)
	}
	return clip, true
}

func (p *Pronouncer) store(path string, clip audio.Clip) {
	wav, err := clip.WAV()
	if err == nil {
		err = os.MkdirAll(filepath.Dir(path), 0o755)
	}
	if err == nil {
		err = os.WriteFile(path, wav, 0o644)
	}
	if err != nil {
		p.logger.Warn("pronunciation cache write failed", zap.String("path", path), zap.Error(err))
	}
}

// cachePath keys the cache on backend model and word.
func (p *Pronouncer) cachePath(word string) string {
	if p.cacheDir == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(p.synth.ModelID() + "\x00" + word))
	return filepath.Join(p.cacheDir, hex.EncodeToString(sum[:])+".wav")
}

func clipFromSpeech(resp *llm.SpeechResponse) audio.Clip {
	if strings.Contains(resp.MIMEType, "wav") {
		return audio.Clip{Data: resp.Audio, Format: audio.FormatWAV}
	}
	rate := resp.SampleRate
	if rate == 0 {
		rate = audio.DefaultSampleRate
	}
	return audio.Clip{
		Data:       resp.Audio,
		Format:     audio.FormatPCM16,
		SampleRate: rate,
		Channels:   audio.DefaultChannels,
	}
}
