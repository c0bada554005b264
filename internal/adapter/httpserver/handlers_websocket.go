package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/sitewatch-ai/internal/domain"
	"github.com/pscheid92/sitewatch-ai/internal/platform/correlation"
	apperrors "github.com/pscheid92/sitewatch-ai/internal/platform/errors"
)

const (
	maxInboundMessageSize = 512
	pongWait              = 60 * time.Second
)

func (s *Server) handleWebSocket(c echo.Context) error {
	ctx := c.Request().Context()
	ip := c.RealIP()

	if !websocket.IsWebSocketUpgrade(c.Request()) {
		s.metrics.WebSocket.ConnectionsTotal.WithLabelValues("upgrade_failed").Inc()
		return apperrors.ValidationError("websocket upgrade required")
	}

	if ok, reason := s.limits.Acquire(ip); !ok {
		s.metrics.WebSocket.ConnectionsRejected.WithLabelValues(string(reason)).Inc()
		return apperrors.RateLimitedError("too many connections").
			WithContext("reason", string(reason)).
			WithContext("ip", ip)
	}
	defer s.limits.Release(ip)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written an HTTP error.
		s.metrics.WebSocket.ConnectionsTotal.WithLabelValues("upgrade_failed").Inc()
		slog.WarnContext(ctx, "WebSocket upgrade failed", "remote_ip", ip, "error", err)
		return nil
	}

	listenerID, err := s.registry.Register(conn)
	if err != nil {
		s.metrics.WebSocket.ConnectionsTotal.WithLabelValues("rejected").Inc()
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrRegistryStopped) {
			level = slog.LevelInfo
		}
		slog.Log(ctx, level, "Listener rejected", "remote_ip", ip, "error", err)
		_ = conn.Close()
		return nil
	}

	s.metrics.WebSocket.ConnectionsTotal.WithLabelValues("accepted").Inc()
	s.metrics.WebSocket.ActiveConnections.Inc()
	connectedAt := s.clock.Now()

	ctx = correlation.WithListenerID(ctx, listenerID)
	slog.InfoContext(ctx, "Listener connected", "remote_ip", ip)

	readUntilClosed(ctx, conn)

	s.registry.Unregister(conn)
	s.metrics.WebSocket.ActiveConnections.Dec()
	s.metrics.WebSocket.ConnectionDuration.Observe(s.clock.Since(connectedAt).Seconds())
	slog.InfoContext(ctx, "Listener disconnected")
	return nil
}

// readUntilClosed discards inbound messages and returns once the client is gone.
// Pongs answering the writer's pings keep the read deadline moving.
func readUntilClosed(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(maxInboundMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				slog.DebugContext(ctx, "Listener read failed", "error", err)
			}
			return
		}
	}
}
