package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/exercise"
	"github.com/nalibo/nalibopath/internal/llm"
)

var (
	_ exercise.FeedbackGenerator = (*FeedbackService)(nil)
	_ exercise.SpeechEvaluator   = (*SpeechService)(nil)
)

func TestTextContent(t *testing.T) {
	assert.Equal(t, "Sol! Corecta.", textContent(json.RawMessage(`"Sol! Corecta."`)))
	assert.Equal(t, "Sol! Corecta.", textContent(json.RawMessage("  Sol! Corecta.\n")))
	assert.Equal(t, `"unterminated`, textContent(json.RawMessage(`"unterminated`)))
}

func TestFeedbackService(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("Use **Amere** for eat.")})
	svc := NewFeedbackService(mock, 256)

	text, err := svc.Feedback(context.Background(), "Li mane frutes", "Li amere frutes", "I eat fruit")
	require.NoError(t, err)
	assert.Equal(t, "Use **Amere** for eat.", text)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Contains(t, req.System, "SVO")
	assert.Contains(t, req.Messages[0].Content, `User's Attempt: "Li mane frutes"`)
	assert.Contains(t, req.Messages[0].Content, `Target Answer: "Li amere frutes"`)
	assert.Nil(t, req.Schema)
	assert.Equal(t, 256, req.MaxTokens)
}

func TestFeedbackService_Errors(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: errors.New("down")},
		llm.MockResponse{Content: json.RawMessage(`"   "`)},
	)
	svc := NewFeedbackService(mock, 256)

	_, err := svc.Feedback(context.Background(), "a", "b", "c")
	assert.Error(t, err)
	_, err = svc.Feedback(context.Background(), "a", "b", "c")
	assert.Error(t, err, "blank feedback counts as failure")
}

func TestMatchFromText(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Transcription: li tames\nScore: 8/10\nIsMatch: True", true},
		{"ISMATCH: TRUE", true},
		{"IsMatch: False", false},
		{"IsMatch:True", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchFromText(tt.text), tt.text)
	}
}

func TestSpeechReportString(t *testing.T) {
	r := SpeechReport{Transcription: "li tames nalibone", Score: 9, Feedback: "Great.", IsMatch: true}
	assert.True(t, MatchFromText(r.String()))
	assert.Contains(t, r.String(), "Score: 9/10")

	r.IsMatch = false
	assert.False(t, MatchFromText(r.String()))
}

func pcmClip() audio.Clip {
	return audio.Clip{Data: make([]byte, 64), Format: audio.FormatPCM16, SampleRate: 16000, Channels: 1}
}

func TestSpeechService_Structured(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"transcription":"li tames nalibone","score":8,"feedback":"Stress the second syllable.","is_match":true}`),
	})
	svc := NewSpeechService(mock, 512)

	v, err := svc.EvaluateSpeech(context.Background(), pcmClip(), "Li tames Nalibone")
	require.NoError(t, err)
	assert.True(t, v.Match)
	assert.Contains(t, v.Text, "Stress the second syllable.")

	req := mock.Calls[0]
	require.Len(t, req.Messages, 1)
	require.Len(t, req.Messages[0].Attachments, 1)
	att := req.Messages[0].Attachments[0]
	assert.Equal(t, "audio/wav", att.MIMEType)
	assert.Equal(t, "RIFF", string(att.Data[:4]))
	assert.Contains(t, req.Messages[0].Content, `"Li tames Nalibone"`)
	require.NotNil(t, req.Schema)
	assert.Equal(t, "speech-verdict", req.Schema.Name)
}

func TestSpeechService_WebMPassesThrough(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"transcription":"x","score":2,"feedback":"y","is_match":false}`),
	})
	svc := NewSpeechService(mock, 512)

	clip := audio.Clip{Data: []byte{0x1a, 0x45, 0xdf, 0xa3}, Format: audio.FormatWebM}
	v, err := svc.EvaluateSpeech(context.Background(), clip, "Kadeji")
	require.NoError(t, err)
	assert.False(t, v.Match)
	assert.Equal(t, "audio/webm;codecs=opus", mock.Calls[0].Messages[0].Attachments[0].MIMEType)
}

func TestSpeechService_FreeTextFallback(t *testing.T) {
	freeText := "Transcription: li tames nalibone\nScore: 7/10\nFeedback: Good.\nIsMatch: True"
	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrInvalidResponse{Content: json.RawMessage(freeText), Err: errors.New("invalid JSON")},
	})
	svc := NewSpeechService(mock, 512)

	v, err := svc.EvaluateSpeech(context.Background(), pcmClip(), "Li tames Nalibone")
	require.NoError(t, err)
	assert.True(t, v.Match)
	assert.Equal(t, freeText, v.Text)
}

func TestSpeechService_TruncatedReport(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrMaxTokensExceeded{Content: json.RawMessage(`{"transcription":"li tames","feedback":"ok","is_match": true, "sc`)},
	})
	svc := NewSpeechService(mock, 32)

	v, err := svc.EvaluateSpeech(context.Background(), pcmClip(), "Li tames Nalibone")
	require.NoError(t, err)
	assert.False(t, v.Match, "marker absent from truncated JSON")
	assert.Contains(t, v.Text, "li tames")
}

func TestSpeechService_Errors(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	svc := NewSpeechService(mock, 512)

	_, err := svc.EvaluateSpeech(context.Background(), audio.Clip{}, "x")
	assert.Error(t, err, "empty recording")
	assert.Equal(t, 0, mock.CallCount())

	_, err = svc.EvaluateSpeech(context.Background(), pcmClip(), "x")
	assert.Error(t, err)
}

func TestPronouncerCaches(t *testing.T) {
	synth := llm.NewMockSynthesizer()
	dir := t.TempDir()
	p := NewPronouncer(synth, dir, nil)
	ctx := context.Background()

	clip, ok := p.Synthesize(ctx, "Kadeji")
	require.True(t, ok)
	assert.Equal(t, audio.FormatPCM16, clip.Format)
	assert.Equal(t, 24000, clip.SampleRate)
	require.Equal(t, 1, synth.CallCount())
	assert.Contains(t, synth.Calls[0].Text, "Kadeji")
	assert.Contains(t, synth.Calls[0].Text, "Phonetics")

	files, err := filepath.Glob(filepath.Join(dir, "*.wav"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	cached, ok := p.Synthesize(ctx, "Kadeji")
	require.True(t, ok)
	assert.Equal(t, audio.FormatWAV, cached.Format)
	assert.Equal(t, 1, synth.CallCount(), "second call must hit the cache")

	_, ok = p.Synthesize(ctx, "Doreji")
	require.True(t, ok)
	assert.Equal(t, 2, synth.CallCount())
}

func TestPronouncerFailures(t *testing.T) {
	ctx := context.Background()

	var none *Pronouncer
	assert.False(t, none.Available())

	p := NewPronouncer(nil, "", nil)
	_, ok := p.Synthesize(ctx, "Kadeji")
	assert.False(t, ok)

	synth := llm.NewMockSynthesizer()
	synth.Err = errors.New("quota")
	dir := t.TempDir()
	p = NewPronouncer(synth, dir, nil)
	_, ok = p.Synthesize(ctx, "Kadeji")
	assert.False(t, ok)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "failures are not cached")

	_, ok = p.Synthesize(ctx, "   ")
	assert.False(t, ok)
}

func TestChat(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage("Ge is the only article.")},
		llm.MockResponse{Err: errors.New("401")},
		llm.MockResponse{Content: json.RawMessage("")},
	)
	chat, err := NewChat("", WithChatProvider(mock))
	require.NoError(t, err)

	msgs := chat.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, ChatGreeting, msgs[0].Text)
	assert.Equal(t, llm.RoleAssistant, msgs[0].Role)

	_, ok := chat.Send(context.Background(), "   ")
	assert.False(t, ok)
	assert.Equal(t, 0, mock.CallCount())

	reply, ok := chat.Send(context.Background(), "What is Ge?")
	require.True(t, ok)
	assert.Equal(t, "Ge is the only article.", reply.Text)

	req := mock.Calls[0]
	assert.True(t, strings.Contains(req.System, "Linguistic Assistant"))
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleAssistant, req.Messages[0].Role)
	assert.Equal(t, "What is Ge?", req.Messages[1].Content)

	reply, _ = chat.Send(context.Background(), "And Ma?")
	assert.Equal(t, ChatConnectionError, reply.Text)

	reply, _ = chat.Send(context.Background(), "Hello?")
	assert.Equal(t, ChatUnavailable, reply.Text)

	assert.Len(t, chat.Messages(), 7)
	assert.False(t, chat.Pending())
}

func TestNewChatRequiresKey(t *testing.T) {
	_, err := NewChat("  ")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	chat, err := NewChat("sk-0123456789abcdef")
	require.NoError(t, err)
	assert.Len(t, chat.Messages(), 1)
}
