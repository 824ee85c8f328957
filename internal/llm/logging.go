package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
	logger    *zap.Logger
}

// WithLogging wraps a Provider with event logging. A nil repo or logger
// disables that sink.
func WithLogging(p Provider, provider string, repo store.EventRepo, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, provider: provider, eventRepo: repo, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	l.record(ctx, data)
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) record(ctx context.Context, data store.LLMRequestEventData) {
	recordEvent(ctx, l.eventRepo, l.logger, data)
}

// LoggingSynthesizer records every speech synthesis call as an event.
type LoggingSynthesizer struct {
	inner     Synthesizer
	provider  string
	eventRepo store.EventRepo
	logger    *zap.Logger
}

// WithSpeechLogging wraps a Synthesizer with event logging.
func WithSpeechLogging(s Synthesizer, provider string, repo store.EventRepo, logger *zap.Logger) Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingSynthesizer{inner: s, provider: provider, eventRepo: repo, logger: logger}
}

func (l *LoggingSynthesizer) Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResponse, error) {
	start := time.Now()

	resp, err := l.inner.Synthesize(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: fmt.Sprintf("[speech voice=%q]\n%s", req.Voice, req.Text),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.ResponseBody = fmt.Sprintf("[%s, %d bytes]", resp.MIMEType, len(resp.Audio))
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	recordEvent(ctx, l.eventRepo, l.logger, data)
	return resp, err
}

func (l *LoggingSynthesizer) ModelID() string {
	return l.inner.ModelID()
}

func recordEvent(ctx context.Context, repo store.EventRepo, logger *zap.Logger, data store.LLMRequestEventData) {
	fields := []zap.Field{
		zap.String("provider", data.Provider),
		zap.String("model", data.Model),
		zap.String("purpose", data.Purpose),
		zap.Int64("latency_ms", data.LatencyMs),
		zap.Bool("success", data.Success),
		zap.Int("input_tokens", data.InputTokens),
		zap.Int("output_tokens", data.OutputTokens),
	}
	if subject := labelsFrom(ctx).subject; subject != "" {
		fields = append(fields, zap.String("subject", subject))
	}
	if data.ErrorMessage != "" {
		fields = append(fields, zap.String("error", data.ErrorMessage))
	}
	logger.Debug("llm request", fields...)
	if repo == nil {
		return
	}
	if err := repo.AppendLLMRequest(ctx, data); err != nil {
		logger.Warn("failed to log LLM request event", zap.Error(err))
	}
}

// serializeRequest builds a readable representation of the LLM request.
// Attachments are summarized, not dumped.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		for _, a := range m.Attachments {
			fmt.Fprintf(&b, "<%s, %d bytes>\n", a.MIMEType, len(a.Data))
		}
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.WriteString(string(schemaDef))
			b.WriteString("\n")
		}
	}

	return b.String()
}
