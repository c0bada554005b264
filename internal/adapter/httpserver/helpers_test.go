package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sitewatch-ai/internal/adapter/metrics"
	"github.com/pscheid92/sitewatch-ai/internal/broadcast"
	"github.com/pscheid92/sitewatch-ai/internal/domain"
	"github.com/pscheid92/sitewatch-ai/internal/platform/config"
	"github.com/pscheid92/sitewatch-ai/internal/safety"
)

// --- Mock implementations ---

type recordingRegistry struct {
	mu           sync.Mutex
	broadcasts   []domain.AnalysisResponse
	registerErr  error
	registered   int
	unregistered int
}

func (r *recordingRegistry) Broadcast(payload domain.AnalysisResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, payload)
}

func (r *recordingRegistry) Register(broadcast.Conn) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registerErr != nil {
		return uuid.Nil, r.registerErr
	}
	r.registered++
	return uuid.New(), nil
}

func (r *recordingRegistry) Unregister(broadcast.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregistered++
}

func (r *recordingRegistry) sent() []domain.AnalysisResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AnalysisResponse(nil), r.broadcasts...)
}

// --- Test helpers ---

type testDeps struct {
	cfg      *config.Config
	clock    clockwork.Clock
	registry listenerRegistry
	checks   []HealthCheck
	metrics  Metrics
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		Port:                "0",
		LogLevel:            "info",
		LogFormat:           "text",
		PushInterval:        50 * time.Millisecond,
		MaxListeners:        10,
		MaxConnectionsPerIP: 5,
		ConnectRate:         100,
		ConnectBurst:        100,
		AllowedOrigins:      "*",
		AnalyzeRate:         100,
		AnalyzeBurst:        100,
		RandomSeed:          7,
		ShutdownTimeout:     time.Second,
	}
}

func newTestMetrics() Metrics {
	reg := metrics.NewRegistry()
	return Metrics{
		Registry:  reg,
		HTTP:      metrics.NewHTTPMetrics(reg),
		WebSocket: metrics.NewWebSocketMetrics(reg),
		Analysis:  metrics.NewAnalysisMetrics(reg),
	}
}

func withRegistry(r listenerRegistry) func(*testDeps) {
	return func(d *testDeps) { d.registry = r }
}

func withClock(c clockwork.Clock) func(*testDeps) {
	return func(d *testDeps) { d.clock = c }
}

func withHealthChecks(checks ...HealthCheck) func(*testDeps) {
	return func(d *testDeps) { d.checks = checks }
}

func withConfig(mutate func(*config.Config)) func(*testDeps) {
	return func(d *testDeps) { mutate(d.cfg) }
}

func newTestServer(t *testing.T, opts ...func(*testDeps)) (*Server, *testDeps) {
	t.Helper()

	deps := &testDeps{
		cfg:      testConfig(),
		clock:    clockwork.NewFakeClock(),
		registry: &recordingRegistry{},
		metrics:  newTestMetrics(),
	}
	for _, opt := range opts {
		opt(deps)
	}

	random := safety.NewRandom(deps.cfg.RandomSeed)
	generator := safety.NewGenerator(random, deps.clock)
	analyzer := safety.NewAnalyzer(random, deps.clock, deps.metrics.Analysis.ObserveRule)
	limits := NewConnectionLimits(deps.cfg.MaxListeners, deps.cfg.MaxConnectionsPerIP, deps.cfg.ConnectRate, deps.cfg.ConnectBurst, deps.clock)

	srv := NewServer(deps.cfg, generator, analyzer, deps.registry, limits, deps.metrics, deps.clock, deps.checks)
	return srv, deps
}

func doRequest(srv *Server, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
