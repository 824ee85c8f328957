package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"NALIBO_ENV", "NALIBO_DB", "NALIBO_LOG_FILE", "NALIBO_LOG_LEVEL",
	"NALIBO_TTS_CACHE", "NALIBO_PLAY_CMD", "NALIBO_RECORD_CMD",
	"NALIBO_LLM_PROVIDER", "NALIBO_GEMINI_API_KEY", "NALIBO_OPENAI_API_KEY",
	"NALIBO_ANTHROPIC_API_KEY", "NALIBO_OPENROUTER_API_KEY", "NALIBO_TTS_BACKEND",
	"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
}

// clearEnv unsets every variable the package reads. t.Setenv restores
// the previous state when the test ends.
func clearEnv(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	return filepath.Join(data, "nalibo")
}

func TestDefaults(t *testing.T) {
	dir := clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.False(t, cfg.Development())
	assert.Equal(t, filepath.Join(dir, "nalibo.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(dir, "tts"), cfg.TTSCache)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.PlayCmd)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.False(t, cfg.LLMEnabled)

	p, err := cfg.ResolveDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nalibo.db"), p)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "sub", "x.db")
	t.Setenv("NALIBO_ENV", "Development")
	t.Setenv("NALIBO_DB", db)
	t.Setenv("NALIBO_PLAY_CMD", "paplay")
	t.Setenv("NALIBO_RECORD_CMD", "arecord -q -f S16_LE")
	t.Setenv("NALIBO_GEMINI_API_KEY", "gm-key")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Development())
	assert.Equal(t, "paplay", cfg.PlayCmd)
	assert.Equal(t, "arecord -q -f S16_LE", cfg.RecordCmd)
	assert.True(t, cfg.LLMEnabled)

	p, err := cfg.ResolveDBPath()
	require.NoError(t, err)
	assert.Equal(t, db, p)
	assert.DirExists(t, filepath.Dir(db))
}

func TestInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NALIBO_ENV", "staging")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestDiscoversVendorKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "none", cfg.LLM.Speech.Backend)
	assert.True(t, cfg.LLMEnabled)
}

func TestExplicitProviderIsNotReplaced(t *testing.T) {
	clearEnv(t)
	t.Setenv("NALIBO_LLM_PROVIDER", "anthropic")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.False(t, cfg.LLMEnabled)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NALIBO_ENV=development\nNALIBO_PLAY_CMD=from-file\n"), 0o600))
	t.Setenv("NALIBO_PLAY_CMD", "from-env")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.True(t, cfg.Development())
	assert.Equal(t, "from-env", cfg.PlayCmd)
}

func TestLoadMissingDotEnv(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Env)
}
