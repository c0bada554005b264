package broadcast

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListener_StopGracefulClosesStalledWriter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	conn := newStalledConn()
	var failures atomic.Int64
	l := newListener(conn, &stubGenerator{}, clock, time.Hour, newTestMetrics(), func(Conn, error) {
		failures.Add(1)
	})

	require.True(t, l.enqueue([]byte(`{"status":"ok"}`)))
	conn.waitWriting(t)

	done := make(chan struct{})
	go func() {
		l.stopGraceful(shutdownReason)
		close(done)
	}()

	// Push ticker, ping ticker and the close grace timer.
	require.NoError(t, clock.BlockUntilContext(context.Background(), 3))
	assert.False(t, conn.isClosed())
	clock.Advance(closeGrace)

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "stopGraceful did not return after the close grace period")
	}
	assert.True(t, conn.isClosed())
	assert.Empty(t, conn.frames, "no close frame can follow a stalled write")
	assert.Equal(t, int64(0), failures.Load())
}

func TestListener_StopGracefulSendsCloseFrameWhenIdle(t *testing.T) {
	conn := newFakeConn()
	l := newListener(conn, &stubGenerator{}, clockwork.NewFakeClock(), time.Hour, newTestMetrics(), func(Conn, error) {})

	l.stopGraceful("bye")

	f := conn.nextFrame(t)
	assert.Contains(t, string(f.data), "bye")
	assert.True(t, conn.isClosed())
}
