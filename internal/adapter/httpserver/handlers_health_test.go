package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sitewatch-ai/internal/platform/version"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func TestHandleReadiness(t *testing.T) {
	srv, _ := newTestServer(t, withHealthChecks(HealthCheck{Name: "fanout", Check: healthOK}))

	rec := doRequest(srv, http.MethodGet, "/health/ready", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestHandleReadiness_FanoutUnresponsive(t *testing.T) {
	srv, deps := newTestServer(t, withHealthChecks(
		HealthCheck{Name: "fanout", Check: healthErr("listener registry unresponsive")},
	))

	rec := doRequest(srv, http.MethodGet, "/health/ready", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"health check failed","type":"unavailable","context":{"failed_check":"fanout"}}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(deps.metrics.HTTP.ErrorsTotal.WithLabelValues("unavailable")))
}

func TestHandleStartup_FailedCheck(t *testing.T) {
	srv, _ := newTestServer(t, withHealthChecks(
		HealthCheck{Name: "fanout", Check: healthOK},
		HealthCheck{Name: "generator", Check: healthErr("not seeded")},
	))

	rec := doRequest(srv, http.MethodGet, "/health/startup", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed_check":"generator"`)
	assert.NotContains(t, rec.Body.String(), "not seeded")
}

func TestHandleStartup(t *testing.T) {
	srv, _ := newTestServer(t, withHealthChecks(HealthCheck{Name: "fanout", Check: healthOK}))

	rec := doRequest(srv, http.MethodGet, "/health/startup", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleLiveness(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv, _ := newTestServer(t, withClock(clock))
	clock.Advance(90 * time.Second)

	rec := doRequest(srv, http.MethodGet, "/health/live", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 90.0, body["uptime"])
}

func TestHandleVersion(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/version", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var info version.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, version.Service, info.Service)
	assert.NotEmpty(t, info.GoVersion)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	doRequest(srv, http.MethodGet, "/ai/safety", "", nil)

	rec := doRequest(srv, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sitewatch_analysis_safety_polls_total 1")
	assert.Contains(t, rec.Body.String(), `sitewatch_http_requests_total{method="GET",route="/ai/safety",status_code="200"} 1`)
}
