package correlation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// RequestIDHeader is the header a caller may set to choose its request ID.
const RequestIDHeader = "X-Request-ID"

type (
	requestKey  struct{}
	listenerKey struct{}
)

// NewID generates an 8-character request ID.
func NewID() string {
	return uuid.NewString()[:8]
}

// WithRequestID returns a new context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey{}, id)
}

// RequestID extracts the request ID from ctx, returning ("", false) if not present.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestKey{}).(string)
	return id, ok && id != ""
}

// WithListenerID returns a new context carrying a streaming listener's ID.
func WithListenerID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, listenerKey{}, id)
}

// ListenerID extracts the listener ID from ctx.
func ListenerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(listenerKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// Handler wraps an existing slog.Handler and adds "request_id" and
// "listener_id" attributes when the context carries them.
type Handler struct {
	inner slog.Handler
}

// NewHandler creates a correlation-aware handler wrapping the given handler.
func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := RequestID(ctx); ok {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id, ok := ListenerID(ctx); ok {
		r.AddAttrs(slog.String("listener_id", id.String()))
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("correlation handler: %w", err)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}
