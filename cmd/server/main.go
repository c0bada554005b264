package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sitewatch-ai/internal/adapter/httpserver"
	"github.com/pscheid92/sitewatch-ai/internal/adapter/metrics"
	"github.com/pscheid92/sitewatch-ai/internal/broadcast"
	"github.com/pscheid92/sitewatch-ai/internal/platform/config"
	"github.com/pscheid92/sitewatch-ai/internal/platform/logging"
	"github.com/pscheid92/sitewatch-ai/internal/platform/version"
	"github.com/pscheid92/sitewatch-ai/internal/safety"
)

func runGracefulShutdown(cfg *config.Config, srv *httpserver.Server, registry *broadcast.Registry) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Hijacked WebSocket connections outlive the HTTP server; close them here.
		registry.Stop()

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	info := version.Get()
	slog.Info("Application starting",
		"service", info.Service,
		"version", info.Version,
		"commit", info.Commit,
		"env", cfg.AppEnv,
		"port", cfg.Port)

	metricsRegistry := metrics.NewRegistry()
	m := httpserver.Metrics{
		Registry:  metricsRegistry,
		HTTP:      metrics.NewHTTPMetrics(metricsRegistry),
		WebSocket: metrics.NewWebSocketMetrics(metricsRegistry),
		Analysis:  metrics.NewAnalysisMetrics(metricsRegistry),
	}
	fanoutMetrics := metrics.NewFanoutMetrics(metricsRegistry)

	random := safety.NewRandom(cfg.RandomSeed)
	generator := safety.NewGenerator(random, clock)
	analyzer := safety.NewAnalyzer(random, clock, m.Analysis.ObserveRule)

	registry := broadcast.NewRegistry(generator, fanoutMetrics, clock, cfg.PushInterval, cfg.MaxListeners)
	limits := httpserver.NewConnectionLimits(cfg.MaxListeners, cfg.MaxConnectionsPerIP, cfg.ConnectRate, cfg.ConnectBurst, clock)

	healthChecks := []httpserver.HealthCheck{
		{Name: "fanout", Check: registry.Ping},
	}

	srv := httpserver.NewServer(cfg, generator, analyzer, registry, limits, m, clock, healthChecks)

	done := runGracefulShutdown(cfg, srv, registry)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
