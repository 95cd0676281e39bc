package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "https://api.groq.com/openai", cfg.UpstreamURL)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.DefaultModel)
	assert.Equal(t, 1000, cfg.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	assert.Equal(t, 120*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 10*time.Second, cfg.RequestGrace)
	assert.Equal(t, 60*time.Second, cfg.StreamWindow)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STREAM_WINDOW_MS", "1500")
	t.Setenv("RELAY_MODE", "MOCK")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 1500*time.Millisecond, cfg.StreamWindow)
	assert.Equal(t, "MOCK", cfg.Mode)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nova.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_model: llama-3.3-70b-versatile\nmax_tokens: 256\n"), 0o600))
	t.Setenv(EnvConfigFile, path)
	t.Setenv("MAX_TOKENS", "512")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.DefaultModel)
	assert.Equal(t, 512, cfg.MaxTokens)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("HTTP_PORT", "70000")
	_, err := Load()
	assert.Error(t, err)
}
