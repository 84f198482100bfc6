package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MIRA_SERVER_URL",
		"MIRA_CLIENT_ID",
		"SILENCE_THRESHOLD_MS",
		"VAD_AGGRESSIVENESS",
		"HTTP_TIMEOUT_SECONDS",
		"MONITOR_ENABLED",
		"MONITOR_ADDR",
		"LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.NotEmpty(t, cfg.ClientID)
	assert.Equal(t, 600, cfg.SilenceThresholdMS)
	assert.Equal(t, 3, cfg.VADAggressiveness)
	assert.Equal(t, 10, cfg.HTTPTimeoutSeconds)
	assert.True(t, cfg.MonitorEnabled)
	assert.Equal(t, ":9090", cfg.MonitorAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MIRA_SERVER_URL", "http://mira.example.com:9000")
	t.Setenv("MIRA_CLIENT_ID", "kitchen-pi")
	t.Setenv("SILENCE_THRESHOLD_MS", "900")
	t.Setenv("VAD_AGGRESSIVENESS", "1")
	t.Setenv("MONITOR_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://mira.example.com:9000", cfg.ServerURL)
	assert.Equal(t, "kitchen-pi", cfg.ClientID)
	assert.Equal(t, 900, cfg.SilenceThresholdMS)
	assert.Equal(t, 1, cfg.VADAggressiveness)
	assert.False(t, cfg.MonitorEnabled)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "negative silence threshold", key: "SILENCE_THRESHOLD_MS", value: "-10"},
		{name: "zero silence threshold", key: "SILENCE_THRESHOLD_MS", value: "0"},
		{name: "vad aggressiveness too high", key: "VAD_AGGRESSIVENESS", value: "5"},
		{name: "vad aggressiveness negative", key: "VAD_AGGRESSIVENESS", value: "-1"},
		{name: "zero http timeout", key: "HTTP_TIMEOUT_SECONDS", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestUnparsableIntFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("SILENCE_THRESHOLD_MS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.SilenceThresholdMS)
}
