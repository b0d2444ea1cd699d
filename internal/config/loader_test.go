package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeTypedConfig(t *testing.T) {
	settings := map[string]any{
		"server": map[string]any{
			"host":             "0.0.0.0",
			"port":             9000,
			"read_timeout":     "15s",
			"shutdown_timeout": "5s",
		},
		"ratelimit": map[string]any{
			"limit":  10,
			"window": "1h",
		},
		"upstream": map[string]any{
			"base_url":   "https://api.anthropic.com",
			"model":      "claude-sonnet-4-20250514",
			"max_tokens": 2048,
			"timeout":    "60s",
			"key_env":    "ANTHROPIC_API_KEY",
		},
		"prompt": map[string]any{
			"file": "/etc/calgate/prompt.md",
		},
		"logging": map[string]any{
			"level":   "debug",
			"profile": "structured",
		},
		"metrics": map[string]any{
			"enabled": true,
			"port":    9090,
		},
	}

	cfg, err := Decode(settings)
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)

	require.Equal(t, 10, cfg.RateLimit.Limit)
	require.Equal(t, time.Hour, cfg.RateLimit.Window)

	require.Equal(t, "https://api.anthropic.com", cfg.Upstream.BaseURL)
	require.Equal(t, "claude-sonnet-4-20250514", cfg.Upstream.Model)
	require.Equal(t, 2048, cfg.Upstream.MaxTokens)
	require.Equal(t, 60*time.Second, cfg.Upstream.Timeout)
	require.Equal(t, "ANTHROPIC_API_KEY", cfg.Upstream.KeyEnv)

	require.Equal(t, "/etc/calgate/prompt.md", cfg.Prompt.File)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.True(t, cfg.Metrics.Enabled)
}

func TestDecodeWeaklyTypedValues(t *testing.T) {
	// Env overrides arrive as strings; decoding must coerce them.
	settings := map[string]any{
		"server": map[string]any{
			"port": "8080",
		},
		"ratelimit": map[string]any{
			"limit": "25",
		},
		"metrics": map[string]any{
			"enabled": "false",
		},
	}

	cfg, err := Decode(settings)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 25, cfg.RateLimit.Limit)
	require.False(t, cfg.Metrics.Enabled)
}

func TestDecodeRejectsBadDuration(t *testing.T) {
	settings := map[string]any{
		"ratelimit": map[string]any{
			"window": "not-a-duration",
		},
	}

	_, err := Decode(settings)
	require.Error(t, err)
}

func TestDecodeEmptySettings(t *testing.T) {
	cfg, err := Decode(map[string]any{})
	require.NoError(t, err)
	require.Zero(t, cfg.RateLimit.Limit)
	require.Zero(t, cfg.Server.Port)
}
