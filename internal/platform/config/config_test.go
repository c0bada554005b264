package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 5*time.Second, cfg.PushInterval)
	assert.Equal(t, 1000, cfg.MaxListeners)
	assert.Equal(t, 20, cfg.MaxConnectionsPerIP)
	assert.Equal(t, 5.0, cfg.ConnectRate)
	assert.Equal(t, 10, cfg.ConnectBurst)
	assert.Equal(t, "*", cfg.AllowedOrigins)
	assert.Equal(t, 20.0, cfg.AnalyzeRate)
	assert.Equal(t, 40, cfg.AnalyzeBurst)
	assert.Equal(t, uint64(0), cfg.RandomSeed)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PUSH_INTERVAL", "250ms")
	t.Setenv("MAX_LISTENERS", "3")
	t.Setenv("WS_CONNECT_RATE", "0.5")
	t.Setenv("RANDOM_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 250*time.Millisecond, cfg.PushInterval)
	assert.Equal(t, 3, cfg.MaxListeners)
	assert.Equal(t, 0.5, cfg.ConnectRate)
	assert.Equal(t, uint64(42), cfg.RandomSeed)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"zero push interval", "PUSH_INTERVAL", "0s", "PUSH_INTERVAL must be positive"},
		{"negative max listeners", "MAX_LISTENERS", "-1", "MAX_LISTENERS must be positive"},
		{"zero per-ip cap", "WS_MAX_CONNECTIONS_PER_IP", "0", "WS_MAX_CONNECTIONS_PER_IP must be positive"},
		{"zero connect rate", "WS_CONNECT_RATE", "0", "WS_CONNECT_RATE must be positive"},
		{"zero burst", "WS_CONNECT_BURST", "0", "WS_CONNECT_BURST must be positive"},
		{"negative analyze rate", "ANALYZE_RATE", "-2", "ANALYZE_RATE must be positive"},
		{"zero shutdown timeout", "SHUTDOWN_TIMEOUT", "0s", "SHUTDOWN_TIMEOUT must be positive"},
		{"blank origins", "WS_ALLOWED_ORIGINS", " ", "WS_ALLOWED_ORIGINS must not be empty; use * to allow every origin"},
		{"unknown log format", "LOG_FORMAT", "xml", `LOG_FORMAT must be text or json, got "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoad_MalformedValue(t *testing.T) {
	t.Setenv("PUSH_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load environment variables")
}
