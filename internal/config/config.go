// Package config provides configuration for the relay and its CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// EnvConfigFile names an optional config file read before the environment.
const EnvConfigFile = "NOVA_CONFIG"

// Config holds the relay configuration.
type Config struct {
	// Server settings
	HTTPPort     int
	RateLimitRPS float64

	// Database; empty disables recording
	DatabaseURL string

	// Upstream provider
	UpstreamURL     string
	UpstreamAPIKey  string
	DefaultModel    string
	MaxTokens       int
	Temperature     float64
	UpstreamTimeout time.Duration
	Mode            string

	// Agents and policy
	AgentsFile string
	PolicyFile string

	// Stream consumer
	RelayURL     string
	RequestGrace time.Duration
	StreamWindow time.Duration

	// Logging
	LogLevel string
}

var defaults = map[string]any{
	"HTTP_PORT":           8080,
	"RATE_LIMIT_RPS":      0.0,
	"DATABASE_URL":        "",
	"GROQ_API_URL":        "https://api.groq.com/openai",
	"GROQ_API_KEY":        "",
	"DEFAULT_MODEL":       "llama-3.1-8b-instant",
	"MAX_TOKENS":          1000,
	"TEMPERATURE":         0.7,
	"UPSTREAM_TIMEOUT_MS": 120000,
	"RELAY_MODE":          "",
	"AGENTS_FILE":         "",
	"POLICY_FILE":         "",
	"RELAY_URL":           "http://localhost:8080",
	"REQUEST_GRACE_MS":    10000,
	"STREAM_WINDOW_MS":    60000,
	"LOG_LEVEL":           "info",
}

// NewViper returns a viper instance with defaults, environment binding and the
// optional NOVA_CONFIG file applied.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path := os.Getenv(EnvConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}
	return v, nil
}

// Load loads configuration from the environment and optional config file.
func Load() (*Config, error) {
	v, err := NewViper()
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper builds a Config from v and validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTPPort:        v.GetInt("HTTP_PORT"),
		RateLimitRPS:    v.GetFloat64("RATE_LIMIT_RPS"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		UpstreamURL:     v.GetString("GROQ_API_URL"),
		UpstreamAPIKey:  v.GetString("GROQ_API_KEY"),
		DefaultModel:    v.GetString("DEFAULT_MODEL"),
		MaxTokens:       v.GetInt("MAX_TOKENS"),
		Temperature:     v.GetFloat64("TEMPERATURE"),
		UpstreamTimeout: millis(v, "UPSTREAM_TIMEOUT_MS"),
		Mode:            v.GetString("RELAY_MODE"),
		AgentsFile:      v.GetString("AGENTS_FILE"),
		PolicyFile:      v.GetString("POLICY_FILE"),
		RelayURL:        v.GetString("RELAY_URL"),
		RequestGrace:    millis(v, "REQUEST_GRACE_MS"),
		StreamWindow:    millis(v, "STREAM_WINDOW_MS"),
		LogLevel:        v.GetString("LOG_LEVEL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the relay cannot run with.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}
	if c.DefaultModel == "" {
		return fmt.Errorf("DEFAULT_MODEL is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("invalid MAX_TOKENS: %d", c.MaxTokens)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %v", c.RateLimitRPS)
	}
	if c.RequestGrace < 0 || c.StreamWindow <= 0 {
		return fmt.Errorf("invalid stream timeouts: grace=%s window=%s", c.RequestGrace, c.StreamWindow)
	}
	return nil
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}
