package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sitewatch-ai/internal/adapter/metrics"
	"github.com/pscheid92/sitewatch-ai/internal/domain"
)

const (
	commandTimeout   = 5 * time.Second  // Actor command timeout
	stopTimeout      = 10 * time.Second // Graceful shutdown timeout
	commandQueueSize = 256
	shutdownReason   = "server shutting down"
)

// registryCmd is the command interface for the Registry actor.
type registryCmd interface{ isRegistryCmd() }

type baseRegistryCmd struct{}

func (baseRegistryCmd) isRegistryCmd() {}

type registerReply struct {
	listenerID uuid.UUID
	err        error
}

type registerCmd struct {
	baseRegistryCmd
	connection   Conn
	replyChannel chan registerReply
}

type unregisterCmd struct {
	baseRegistryCmd
	connection Conn
	reason     string // empty for a client disconnect
	cause      error
}

type broadcastCmd struct {
	baseRegistryCmd
	data []byte
}

type listenerCountCmd struct {
	baseRegistryCmd
	replyChannel chan int
}

type stopCmd struct {
	baseRegistryCmd
}

// Registry tracks connected listeners. Each listener receives a synthetic
// payload every push interval plus every broadcast issued while it is registered.
type Registry struct {
	cmdCh        chan registryCmd
	clock        clockwork.Clock
	generator    domain.AlertGenerator
	metrics      *metrics.FanoutMetrics
	listeners    map[Conn]*listener
	done         chan struct{}
	stopOnce     sync.Once
	stopTimeout  time.Duration
	pushInterval time.Duration
	maxListeners int
}

// NewRegistry creates a registry and starts its actor goroutine.
// generator supplies the periodic per-listener payloads.
// pushInterval is the period of those payloads.
// maxListeners bounds the number of concurrently registered listeners.
func NewRegistry(generator domain.AlertGenerator, m *metrics.FanoutMetrics, clock clockwork.Clock, pushInterval time.Duration, maxListeners int) *Registry {
	r := &Registry{
		cmdCh:        make(chan registryCmd, commandQueueSize),
		clock:        clock,
		generator:    generator,
		metrics:      m,
		listeners:    make(map[Conn]*listener),
		done:         make(chan struct{}),
		stopTimeout:  stopTimeout,
		pushInterval: pushInterval,
		maxListeners: maxListeners,
	}
	go r.run()
	return r
}

// Register adds a connection and starts its push loop. Registering a
// connection that is already present returns its existing listener ID.
func (r *Registry) Register(conn Conn) (uuid.UUID, error) {
	replyCh := make(chan registerReply, 1)
	if !r.send(registerCmd{connection: conn, replyChannel: replyCh}) {
		return uuid.Nil, domain.ErrRegistryStopped
	}

	// Use timeout to prevent blocking forever if the actor is stuck
	timer := r.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return reply.listenerID, reply.err
	case <-r.done:
		return uuid.Nil, domain.ErrRegistryStopped
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection. Unknown connections are ignored.
func (r *Registry) Unregister(conn Conn) {
	r.send(unregisterCmd{connection: conn})
}

// Broadcast queues payload for every current listener and returns
// immediately. Delivery failures are never reported to the caller.
func (r *Registry) Broadcast(payload domain.AnalysisResponse) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal broadcast payload", "error", err)
		return
	}

	select {
	case <-r.done:
		r.metrics.BroadcastsDropped.Inc()
		return
	default:
	}

	select {
	case r.cmdCh <- broadcastCmd{data: data}:
	default:
		slog.Warn("Broadcast dropped, command queue full", "capacity", cap(r.cmdCh))
		r.metrics.BroadcastsDropped.Inc()
	}
}

// ListenerCount returns the number of registered listeners.
// Returns -1 if the command times out.
func (r *Registry) ListenerCount() int {
	ctx, cancel := clockwork.WithTimeout(context.Background(), r.clock, commandTimeout)
	defer cancel()

	count, err := r.count(ctx)
	if err != nil {
		slog.Warn("ListenerCount failed", "error", err)
		return -1
	}
	return count
}

// Ping reports whether the actor is processing commands.
func (r *Registry) Ping(ctx context.Context) error {
	_, err := r.count(ctx)
	return err
}

func (r *Registry) count(ctx context.Context) (int, error) {
	replyCh := make(chan int, 1)
	select {
	case r.cmdCh <- listenerCountCmd{replyChannel: replyCh}:
	case <-r.done:
		return 0, domain.ErrRegistryStopped
	case <-ctx.Done():
		return 0, fmt.Errorf("listener registry unresponsive: %w", ctx.Err())
	}

	select {
	case count := <-replyCh:
		return count, nil
	case <-r.done:
		return 0, domain.ErrRegistryStopped
	case <-ctx.Done():
		return 0, fmt.Errorf("listener registry unresponsive: %w", ctx.Err())
	}
}

// Stop closes every listener with a close frame and stops the actor.
// Blocks until the actor has exited or the stop timeout is reached.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		if !r.send(stopCmd{}) {
			return
		}

		timeout := r.clock.NewTimer(r.stopTimeout)
		defer timeout.Stop()

		select {
		case <-r.done:
			slog.Info("Listener registry stopped gracefully")
		case <-timeout.Chan():
			slog.Warn("Listener registry stop timeout exceeded", "timeout", r.stopTimeout)
		}
	})
}

func (r *Registry) send(cmd registryCmd) bool {
	select {
	case r.cmdCh <- cmd:
		return true
	case <-r.done:
		return false
	}
}

// reportFailure is called by a listener whose write failed.
func (r *Registry) reportFailure(conn Conn, err error) {
	r.send(unregisterCmd{connection: conn, reason: metrics.DropReasonWriteFailed, cause: err})
}

func (r *Registry) run() {
	defer close(r.done)
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Listener registry panic recovered", "panic", rec)
			r.closeAll("registry panic")
		}
	}()

	for cmd := range r.cmdCh {
		r.metrics.CommandQueueDepth.Set(float64(len(r.cmdCh)))

		switch c := cmd.(type) {
		case registerCmd:
			r.handleRegister(c)
		case unregisterCmd:
			r.handleUnregister(c)
		case broadcastCmd:
			r.handleBroadcast(c)
		case listenerCountCmd:
			c.replyChannel <- len(r.listeners)
		case stopCmd:
			r.handleStop()
			return
		default:
			slog.Warn("Listener registry received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (r *Registry) handleRegister(c registerCmd) {
	if existing, ok := r.listeners[c.connection]; ok {
		c.replyChannel <- registerReply{listenerID: existing.id}
		return
	}

	if len(r.listeners) >= r.maxListeners {
		slog.Warn("Rejecting listener: registry full", "max_listeners", r.maxListeners)
		_ = c.connection.Close()
		c.replyChannel <- registerReply{err: fmt.Errorf("%w (max %d)", domain.ErrRegistryFull, r.maxListeners)}
		return
	}

	l := newListener(c.connection, r.generator, r.clock, r.pushInterval, r.metrics, r.reportFailure)
	r.listeners[c.connection] = l
	r.metrics.ActiveListeners.Set(float64(len(r.listeners)))

	slog.DebugContext(l.ctx, "Listener registered", "total_listeners", len(r.listeners))
	c.replyChannel <- registerReply{listenerID: l.id}
}

func (r *Registry) handleUnregister(c unregisterCmd) {
	l, ok := r.listeners[c.connection]
	if !ok {
		return
	}

	l.stop()
	delete(r.listeners, c.connection)
	r.metrics.ActiveListeners.Set(float64(len(r.listeners)))

	if c.reason == "" {
		slog.DebugContext(l.ctx, "Listener unregistered", "remaining_listeners", len(r.listeners))
		return
	}

	r.metrics.ListenersDropped.WithLabelValues(c.reason).Inc()
	attrs := []any{"reason", c.reason, "remaining_listeners", len(r.listeners)}
	if c.cause != nil {
		attrs = append(attrs, "error", c.cause)
	}
	slog.WarnContext(l.ctx, "Dropping listener", attrs...)
}

func (r *Registry) handleBroadcast(c broadcastCmd) {
	r.metrics.BroadcastsTotal.Inc()

	// Removal is deferred until the sweep is complete.
	var failed []Conn
	for conn, l := range r.listeners {
		if l.enqueue(c.data) {
			r.metrics.Deliveries.WithLabelValues("delivered").Inc()
			continue
		}
		r.metrics.Deliveries.WithLabelValues("failed").Inc()
		failed = append(failed, conn)
	}

	for _, conn := range failed {
		r.handleUnregister(unregisterCmd{connection: conn, reason: metrics.DropReasonBroadcastFailed})
	}
}

func (r *Registry) handleStop() {
	total := len(r.listeners)
	slog.Info("Listener registry shutting down", "listeners", total)

	r.closeAll(shutdownReason)

	slog.Info("Listener registry shutdown complete", "disconnected_listeners", total)
}

// closeAll closes every listener with the given reason.
// Used during panic recovery and graceful shutdown.
func (r *Registry) closeAll(reason string) {
	var wg sync.WaitGroup
	for conn, l := range r.listeners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.stopGraceful(reason)
		}()
		delete(r.listeners, conn)
	}
	wg.Wait()
	r.metrics.ActiveListeners.Set(0)
}
