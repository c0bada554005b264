package httpserver

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleExpiry      = 10 * time.Minute
)

// LimitReason describes why a connection was rejected.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ConnectionLimits admits streaming connections. A connection needs a token
// from its IP's bucket, a free global slot and a free per-IP slot.
type ConnectionLimits struct {
	mu    sync.Mutex
	clock clockwork.Clock

	globalMax int
	current   int

	perIPMax int
	perIP    map[string]int

	rate      rate.Limit
	burst     int
	limiters  map[string]*rateLimiterEntry
	cleanupAt time.Time
}

// NewConnectionLimits creates a combined connection limiter.
func NewConnectionLimits(globalMax, perIPMax int, connectionsPerSecond float64, burst int, clock clockwork.Clock) *ConnectionLimits {
	return &ConnectionLimits{
		clock:     clock,
		globalMax: globalMax,
		perIPMax:  perIPMax,
		perIP:     make(map[string]int),
		rate:      rate.Limit(connectionsPerSecond),
		burst:     burst,
		limiters:  make(map[string]*rateLimiterEntry),
		cleanupAt: clock.Now().Add(limiterCleanupInterval),
	}
}

// Acquire reserves a slot for ip. On success the caller must Release it.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	// Rate limit is checked first so floods are cut before they touch the slot counts.
	if !l.allow(ip, now) {
		return false, LimitReasonRate
	}
	if l.current >= l.globalMax {
		return false, LimitReasonGlobal
	}
	if l.perIP[ip] >= l.perIPMax {
		return false, LimitReasonPerIP
	}

	l.current++
	l.perIP[ip]++
	return true, ""
}

// Release frees the slot taken by a successful Acquire.
func (l *ConnectionLimits) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	count, ok := l.perIP[ip]
	if !ok {
		return
	}
	if count <= 1 {
		delete(l.perIP, ip)
	} else {
		l.perIP[ip] = count - 1
	}
	l.current--
}

// allow must be called with mu held.
func (l *ConnectionLimits) allow(ip string, now time.Time) bool {
	if now.After(l.cleanupAt) {
		l.cleanup(now)
		l.cleanupAt = now.Add(limiterCleanupInterval)
	}

	entry, exists := l.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// cleanup drops buckets idle longer than limiterIdleExpiry. Must be called with mu held.
func (l *ConnectionLimits) cleanup(now time.Time) {
	cutoff := now.Add(-limiterIdleExpiry)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}
