package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → retry → logging → base
	logged := WithLogging(base, cfg.Provider, eventRepo, logger)
	retried := WithRetry(logged, cfg.Retry)

	return retried, nil
}

// NewSynthesizer creates the pronunciation backend selected by
// cfg.Speech.Backend, wrapped with event logging. It returns nil when
// speech is disabled.
func NewSynthesizer(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Synthesizer, error) {
	var base Synthesizer

	switch cfg.Speech.Backend {
	case "", "none":
		return nil, nil
	case "gemini":
		if cfg.Provider == "mock" {
			return NewMockSynthesizer(), nil
		}
		g, err := NewGeminiProvider(ctx, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini speech: %w", err)
		}
		base = g.Speech()
	case "google":
		c, err := NewCloudSpeech(ctx, cfg.Speech)
		if err != nil {
			return nil, fmt.Errorf("initializing cloud speech: %w", err)
		}
		base = c
	default:
		return nil, fmt.Errorf("unknown speech backend: %q", cfg.Speech.Backend)
	}

	return WithSpeechLogging(base, cfg.Speech.Backend, eventRepo, logger), nil
}
