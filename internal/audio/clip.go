package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Format is the encoding of a Clip's Data.
type Format string

const (
	// FormatPCM16 is headerless little-endian signed 16-bit PCM.
	FormatPCM16 Format = "pcm16"
	// FormatWAV is a complete RIFF/WAVE file.
	FormatWAV Format = "wav"
	// FormatWebM is an Opus stream in a WebM container, as captured by
	// most recorders.
	FormatWebM Format = "webm"
)

// Default parameters of synthesized speech.
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
)

// Clip is an in-memory audio artifact.
type Clip struct {
	Data       []byte
	Format     Format
	SampleRate int
	Channels   int
}

// Empty reports whether the clip carries no samples.
func (c Clip) Empty() bool {
	return len(c.Data) == 0
}

// MIMEType returns the media type used when sending the clip to a model.
func (c Clip) MIMEType() string {
	switch c.Format {
	case FormatWAV:
		return "audio/wav"
	case FormatWebM:
		return "audio/webm;codecs=opus"
	default:
		return fmt.Sprintf("audio/L16;rate=%d", c.rate())
	}
}

// WAV returns the clip as a playable WAV file. PCM data gets a RIFF
// header; WAV data is returned unchanged.
func (c Clip) WAV() ([]byte, error) {
	switch c.Format {
	case FormatWAV:
		return c.Data, nil
	case FormatPCM16, "":
	default:
		return nil, fmt.Errorf("cannot convert %s audio to wav", c.Format)
	}

	channels := c.Channels
	if channels <= 0 {
		channels = DefaultChannels
	}
	rate := c.rate()
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + len(c.Data))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(c.Data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(c.Data)))
	buf.Write(c.Data)
	return buf.Bytes(), nil
}

func (c Clip) rate() int {
	if c.SampleRate <= 0 {
		return DefaultSampleRate
	}
	return c.SampleRate
}

// Tone synthesizes the short answer cue: a rising sine sweep for a
// correct answer, a falling sawtooth for a wrong one.
func Tone(correct bool) Clip {
	const (
		rate     = 22050
		duration = 0.2
		volume   = 0.1 * math.MaxInt16
	)
	n := int(rate * duration)
	data := make([]byte, 0, n*2)
	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		var freq, sample float64
		if correct {
			freq = 440 * math.Pow(2, math.Min(t*2, 1))
			sample = math.Sin(2 * math.Pi * phase)
		} else {
			freq = 150 - 50*t
			sample = 2*(phase-math.Floor(phase+0.5))
		}
		phase += freq / rate
		amp := volume * (1 - 0.9*t)
		data = binary.LittleEndian.AppendUint16(data, uint16(int16(sample*amp)))
	}
	return Clip{Data: data, Format: FormatPCM16, SampleRate: rate, Channels: 1}
}
