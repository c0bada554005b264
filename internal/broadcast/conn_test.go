package broadcast

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/pscheid92/sitewatch-ai/internal/adapter/metrics"
	"github.com/pscheid92/sitewatch-ai/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var (
	errConnClosed = errors.New("use of closed connection")
	errBrokenPipe = errors.New("broken pipe")
)

type frame struct {
	messageType int
	data        []byte
}

// fakeConn records frames written to it. Writes can be made to fail or to
// block until the connection is closed.
type fakeConn struct {
	frames    chan frame
	fail      atomic.Bool
	block     bool
	writing   chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan frame, 128),
		closed: make(chan struct{}),
	}
}

func newBrokenConn() *fakeConn {
	c := newFakeConn()
	c.fail.Store(true)
	return c
}

func newStalledConn() *fakeConn {
	c := newFakeConn()
	c.block = true
	c.writing = make(chan struct{}, messageBufferSize+1)
	return c
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if c.block {
		select {
		case c.writing <- struct{}{}:
		default:
		}
		<-c.closed
		return errConnClosed
	}

	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	if c.fail.Load() {
		return errBrokenPipe
	}

	select {
	case c.frames <- frame{messageType: messageType, data: append([]byte(nil), data...)}:
	default:
	}
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// waitWriting blocks until a write has stalled on the connection.
func (c *fakeConn) waitWriting(t *testing.T) {
	t.Helper()
	select {
	case <-c.writing:
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for a stalled write")
	}
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// nextText returns the next text frame, skipping pings.
func (c *fakeConn) nextText(t *testing.T) []byte {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case f := <-c.frames:
			if f.messageType == ws.TextMessage {
				return f.data
			}
		case <-deadline:
			require.FailNow(t, "timed out waiting for text frame")
			return nil
		}
	}
}

func (c *fakeConn) nextFrame(t *testing.T) frame {
	t.Helper()
	select {
	case f := <-c.frames:
		return f
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for frame")
		return frame{}
	}
}

type stubGenerator struct {
	calls atomic.Int64
}

func (g *stubGenerator) Generate() domain.AnalysisResponse {
	g.calls.Add(1)
	return domain.AnalysisResponse{
		Status: domain.StatusOK,
		Alerts: []domain.AlertRecord{{
			Category:   domain.CategoryInfo,
			Message:    "No issues detected.",
			Confidence: 0.8,
		}},
		Predictions: &domain.PredictionSummary{RiskScore: 0.1, NextIncidentEstimate: "12 hours"},
	}
}

func newTestMetrics() *metrics.FanoutMetrics {
	return metrics.NewFanoutMetrics(prometheus.NewRegistry())
}
