package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use for text generation.
	// Values: "gemini", "anthropic", "openai", "openrouter", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Speech     SpeechConfig
	Retry      RetryConfig

	// MaxTokens caps generated output for callers that do not set their own.
	MaxTokens int

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 30s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for OpenRouter or compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey   string
	Model    string // Default: "gemini-flash"
	TTSModel string // Default: "gemini-tts"
	Voice    string // Default: "Kore"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// SpeechConfig selects the pronunciation backend.
type SpeechConfig struct {
	// Backend is "gemini" (Gemini TTS, needs the Gemini key), "google"
	// (Cloud Text-to-Speech, uses application default credentials) or
	// "none".
	Backend string

	// LanguageCode and Voice apply to the Cloud Text-to-Speech backend.
	LanguageCode string
	Voice        string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model:    "gemini-flash",
			TTSModel: "gemini-tts",
			Voice:    defaultGeminiVoice,
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Speech: SpeechConfig{
			Backend:      "gemini",
			LanguageCode: "es-ES",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		MaxTokens: 1024,
		Timeout:   30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from NALIBO_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	for name, dst := range map[string]*string{
		"NALIBO_LLM_PROVIDER":       &cfg.Provider,
		"NALIBO_ANTHROPIC_API_KEY":  &cfg.Anthropic.APIKey,
		"NALIBO_ANTHROPIC_MODEL":    &cfg.Anthropic.Model,
		"NALIBO_OPENAI_API_KEY":     &cfg.OpenAI.APIKey,
		"NALIBO_OPENAI_MODEL":       &cfg.OpenAI.Model,
		"NALIBO_OPENAI_BASE_URL":    &cfg.OpenAI.BaseURL,
		"NALIBO_GEMINI_API_KEY":     &cfg.Gemini.APIKey,
		"NALIBO_GEMINI_MODEL":       &cfg.Gemini.Model,
		"NALIBO_GEMINI_VOICE":       &cfg.Gemini.Voice,
		"NALIBO_OPENROUTER_API_KEY": &cfg.OpenRouter.APIKey,
		"NALIBO_OPENROUTER_MODEL":   &cfg.OpenRouter.Model,
		"NALIBO_TTS_BACKEND":        &cfg.Speech.Backend,
		"NALIBO_TTS_VOICE":          &cfg.Speech.Voice,
		"NALIBO_TTS_LANGUAGE":       &cfg.Speech.LanguageCode,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	// NALIBO_LLM_MODEL overrides the model of whichever provider is selected.
	if m := os.Getenv("NALIBO_LLM_MODEL"); m != "" {
		cfg.setModel(m)
	}
	if n := positiveEnv("NALIBO_LLM_MAX_TOKENS"); n > 0 {
		cfg.MaxTokens = n
	}
	if n := positiveEnv("NALIBO_LLM_MAX_RETRIES"); n > 0 {
		cfg.Retry.MaxAttempts = n
	}

	return cfg
}

// positiveEnv parses name as a positive integer, or returns 0.
func positiveEnv(name string) int {
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (c *Config) setModel(m string) {
	switch c.Provider {
	case "anthropic":
		c.Anthropic.Model = m
	case "openai":
		c.OpenAI.Model = m
	case "gemini":
		c.Gemini.Model = m
	case "openrouter":
		c.OpenRouter.Model = m
	}
}

// DiscoverConfig looks for a vendor's standard API key variable, trying
// Gemini first, then OpenAI, Anthropic and OpenRouter. It reports false
// when none is set.
func DiscoverConfig() (Config, bool) {
	for _, vendor := range []struct{ provider, env string }{
		{"gemini", "GEMINI_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"openrouter", "OPENROUTER_API_KEY"},
	} {
		k := os.Getenv(vendor.env)
		if k == "" {
			continue
		}
		cfg := DefaultConfig()
		cfg.Provider = vendor.provider
		*cfg.apiKey() = k
		// Pronunciation audio comes from Gemini TTS, so other vendor keys
		// run without it.
		if vendor.provider != "gemini" {
			cfg.Speech.Backend = "none"
		}
		return cfg, true
	}
	return Config{}, false
}

// apiKey points at the key field of the selected provider, or nil for
// mock and unknown providers.
func (c *Config) apiKey() *string {
	switch c.Provider {
	case "anthropic":
		return &c.Anthropic.APIKey
	case "openai":
		return &c.OpenAI.APIKey
	case "gemini":
		return &c.Gemini.APIKey
	case "openrouter":
		return &c.OpenRouter.APIKey
	}
	return nil
}

// Validate checks that the selected provider and speech backend have the
// keys they need.
func (c Config) Validate() error {
	if c.Provider != "mock" {
		key := c.apiKey()
		if key == nil {
			return fmt.Errorf("unknown LLM provider: %q", c.Provider)
		}
		if *key == "" {
			return fmt.Errorf("NALIBO_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
		}
	}

	switch c.Speech.Backend {
	case "gemini":
		if c.Gemini.APIKey == "" && c.Provider != "mock" {
			return fmt.Errorf("NALIBO_GEMINI_API_KEY is required for the gemini speech backend")
		}
	case "google", "none", "":
	default:
		return fmt.Errorf("unknown speech backend: %q", c.Speech.Backend)
	}
	return nil
}
