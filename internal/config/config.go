// Package config loads application settings from an optional .env file
// and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nalibo/nalibopath/internal/llm"
	"github.com/nalibo/nalibopath/internal/store"
)

// Environments.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config is the resolved application configuration.
type Config struct {
	// Env is "production" or "development".
	Env string

	// DBPath is the SQLite file. Empty means store.DefaultDBPath.
	DBPath string

	// LogFile receives the JSON log in production.
	LogFile string

	// LogLevel is a zap level name.
	LogLevel string

	// TTSCache holds synthesized pronunciation clips.
	TTSCache string

	// PlayCmd and RecordCmd override the audio commands. Empty selects
	// the platform default.
	PlayCmd   string
	RecordCmd string

	LLM llm.Config

	// LLMEnabled is set when the selected provider has its credentials.
	LLMEnabled bool
}

// Load reads .env files (missing files are fine) and then the environment.
// Variables already set in the environment win over .env entries.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the environment alone.
func FromEnv() (*Config, error) {
	dataDir, err := store.DataDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:       getEnv("NALIBO_ENV", EnvProduction),
		DBPath:    os.Getenv("NALIBO_DB"),
		LogFile:   getEnv("NALIBO_LOG_FILE", filepath.Join(dataDir, "nalibo.log")),
		LogLevel:  getEnv("NALIBO_LOG_LEVEL", "info"),
		TTSCache:  getEnv("NALIBO_TTS_CACHE", filepath.Join(dataDir, "tts")),
		PlayCmd:   os.Getenv("NALIBO_PLAY_CMD"),
		RecordCmd: os.Getenv("NALIBO_RECORD_CMD"),
	}
	cfg.Env = strings.ToLower(cfg.Env)
	if cfg.Env != EnvProduction && cfg.Env != EnvDevelopment {
		return nil, fmt.Errorf("NALIBO_ENV must be %q or %q, got %q", EnvProduction, EnvDevelopment, cfg.Env)
	}

	cfg.LLM = llm.ConfigFromEnv()
	if os.Getenv("NALIBO_LLM_PROVIDER") == "" && cfg.LLM.Validate() != nil {
		// Fall back to the vendors' own key variables.
		if found, ok := llm.DiscoverConfig(); ok {
			cfg.LLM = found
		}
	}
	cfg.LLMEnabled = cfg.LLM.Validate() == nil

	return cfg, nil
}

// Development reports whether the development environment is selected.
func (c *Config) Development() bool {
	return c.Env == EnvDevelopment
}

// ResolveDBPath returns DBPath, or the default location when unset.
// The parent directory is created.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, store.EnsureDir(c.DBPath)
	}
	return store.DefaultDBPath()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
