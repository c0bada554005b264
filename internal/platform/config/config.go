package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"4000"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	PushInterval time.Duration `env:"PUSH_INTERVAL" default:"5s"`
	MaxListeners int           `env:"MAX_LISTENERS" default:"1000"`

	MaxConnectionsPerIP int     `env:"WS_MAX_CONNECTIONS_PER_IP" default:"20"`
	ConnectRate         float64 `env:"WS_CONNECT_RATE" default:"5"`
	ConnectBurst        int     `env:"WS_CONNECT_BURST" default:"10"`
	AllowedOrigins      string  `env:"WS_ALLOWED_ORIGINS" default:"*"` // comma-separated

	AnalyzeRate  float64 `env:"ANALYZE_RATE" default:"20"`
	AnalyzeBurst int     `env:"ANALYZE_BURST" default:"40"`

	RandomSeed      uint64        `env:"RANDOM_SEED" default:"0"` // 0 seeds from the runtime
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return errors.New("PORT is required")
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if strings.TrimSpace(cfg.AllowedOrigins) == "" {
		return errors.New("WS_ALLOWED_ORIGINS must not be empty; use * to allow every origin")
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"PUSH_INTERVAL", float64(cfg.PushInterval)},
		{"MAX_LISTENERS", float64(cfg.MaxListeners)},
		{"WS_MAX_CONNECTIONS_PER_IP", float64(cfg.MaxConnectionsPerIP)},
		{"WS_CONNECT_RATE", cfg.ConnectRate},
		{"WS_CONNECT_BURST", float64(cfg.ConnectBurst)},
		{"ANALYZE_RATE", cfg.AnalyzeRate},
		{"ANALYZE_BURST", float64(cfg.AnalyzeBurst)},
		{"SHUTDOWN_TIMEOUT", float64(cfg.ShutdownTimeout)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}

	return nil
}
