package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sitewatch-ai/internal/adapter/metrics"
	"github.com/pscheid92/sitewatch-ai/internal/domain"
	"github.com/pscheid92/sitewatch-ai/internal/platform/correlation"
)

const (
	writeDeadline     = 5 * time.Second
	closeGrace        = time.Second
	pingInterval      = 30 * time.Second
	messageBufferSize = 16
)

// Conn is the transport a listener writes to. *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type failureFunc func(conn Conn, err error)

// listener is the only writer of its connection.
type listener struct {
	id          uuid.UUID
	ctx         context.Context
	connection  Conn
	clock       clockwork.Clock
	generator   domain.AlertGenerator
	metrics     *metrics.FanoutMetrics
	onFailure   failureFunc
	pushTicker  clockwork.Ticker
	pingTicker  clockwork.Ticker
	sendChannel chan []byte
	doneChannel chan struct{}
	exited      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func newListener(connection Conn, generator domain.AlertGenerator, clock clockwork.Clock, pushInterval time.Duration, m *metrics.FanoutMetrics, onFailure failureFunc) *listener {
	id := uuid.New()
	l := &listener{
		id:          id,
		ctx:         correlation.WithListenerID(context.Background(), id),
		connection:  connection,
		clock:       clock,
		generator:   generator,
		metrics:     m,
		onFailure:   onFailure,
		pushTicker:  clock.NewTicker(pushInterval),
		pingTicker:  clock.NewTicker(pingInterval),
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
		exited:      make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *listener) run() {
	defer l.wg.Done()
	defer close(l.exited)
	defer l.pushTicker.Stop()
	defer l.pingTicker.Stop()

	err := l.loop()
	if err == nil || l.stopping() {
		return
	}

	// Reported from its own goroutine: the registry may be blocked in stop() waiting for us.
	go l.onFailure(l.connection, err)
}

func (l *listener) loop() error {
	for {
		select {
		case <-l.doneChannel:
			return nil
		case msg := <-l.sendChannel:
			if err := l.write(websocket.TextMessage, msg); err != nil {
				return fmt.Errorf("write broadcast: %w", err)
			}
		case <-l.pushTicker.Chan():
			data, err := json.Marshal(l.generator.Generate())
			if err != nil {
				slog.ErrorContext(l.ctx, "Failed to marshal synthetic payload", "error", err)
				continue
			}
			if err := l.write(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("write push: %w", err)
			}
			l.metrics.PushesTotal.Inc()
		case <-l.pingTicker.Chan():
			if err := l.write(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func (l *listener) write(messageType int, data []byte) error {
	_ = l.connection.SetWriteDeadline(l.clock.Now().Add(writeDeadline))
	return l.connection.WriteMessage(messageType, data)
}

// enqueue hands a broadcast payload to the writer without blocking.
// It fails when the writer has stopped or its queue is full.
func (l *listener) enqueue(data []byte) bool {
	select {
	case <-l.exited:
		return false
	default:
	}

	select {
	case l.sendChannel <- data:
		return true
	default:
		return false
	}
}

func (l *listener) stopping() bool {
	select {
	case <-l.doneChannel:
		return true
	default:
		return false
	}
}

func (l *listener) stop() {
	l.stopOnce.Do(func() {
		close(l.doneChannel)
		_ = l.connection.Close()
	})
	l.wg.Wait()
}

// stopGraceful sends a close frame with reason before closing.
func (l *listener) stopGraceful(reason string) {
	l.stopOnce.Do(func() {
		close(l.doneChannel)

		// The writer must exit before the close frame: one writer per connection.
		// A writer stuck mid-write is unblocked by closing the connection instead.
		timer := l.clock.NewTimer(closeGrace)
		defer timer.Stop()
		select {
		case <-l.exited:
		case <-timer.Chan():
			slog.WarnContext(l.ctx, "Listener writer stalled, closing without close frame", "grace", closeGrace)
			_ = l.connection.Close()
			return
		}

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		_ = l.write(websocket.CloseMessage, closeMsg)
		_ = l.connection.Close()
	})
	l.wg.Wait()
}
