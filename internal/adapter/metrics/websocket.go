package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics holds Prometheus metrics for streaming connection admission.
type WebSocketMetrics struct {
	ActiveConnections   prometheus.Gauge
	ConnectionsTotal    *prometheus.CounterVec
	ConnectionsRejected *prometheus.CounterVec
	ConnectionDuration  prometheus.Histogram
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of open WebSocket connections.",
		}),
		ConnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_total",
			Help:      "Total WebSocket connection attempts, by result.",
		}, []string{"result"}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_rejected_total",
			Help:      "WebSocket connections rejected before upgrade, by reason.",
		}, []string{"reason"}),
		ConnectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connection_duration_seconds",
			Help:      "Lifetime of WebSocket connections in seconds.",
			Buckets:   []float64{1, 5, 30, 60, 300, 900, 1800, 3600},
		}),
	}

	reg.MustRegister(m.ActiveConnections, m.ConnectionsTotal, m.ConnectionsRejected, m.ConnectionDuration)
	return m
}
