package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/sitewatch-ai/internal/adapter/metrics"
	"github.com/pscheid92/sitewatch-ai/internal/broadcast"
	"github.com/pscheid92/sitewatch-ai/internal/domain"
	"github.com/pscheid92/sitewatch-ai/internal/platform/config"
)

type listenerRegistry interface {
	domain.Broadcaster
	Register(conn broadcast.Conn) (uuid.UUID, error)
	Unregister(conn broadcast.Conn)
}

// Metrics groups the collectors the HTTP layer records to.
type Metrics struct {
	Registry  *prometheus.Registry
	HTTP      *metrics.HTTPMetrics
	WebSocket *metrics.WebSocketMetrics
	Analysis  *metrics.AnalysisMetrics
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	clock  clockwork.Clock

	generator domain.AlertGenerator
	analyzer  domain.WasteLogAnalyzer
	registry  listenerRegistry
	limits    *ConnectionLimits
	upgrader  websocket.Upgrader

	metrics      Metrics
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, generator domain.AlertGenerator, analyzer domain.WasteLogAnalyzer, registry listenerRegistry, limits *ConnectionLimits, m Metrics, clock clockwork.Clock, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		config:    cfg,
		clock:     clock,
		generator: generator,
		analyzer:  analyzer,
		registry:  registry,
		limits:    limits,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     newCheckOrigin(parseOrigins(cfg.AllowedOrigins)),
		},
		metrics:      m,
		healthChecks: healthChecks,
		startTime:    clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router, mainly for httptest servers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
