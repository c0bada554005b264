package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reasons a listener is dropped from the fan-out registry.
const (
	DropReasonWriteFailed     = "write_failed"
	DropReasonBroadcastFailed = "broadcast_failed"
)

// FanoutMetrics holds Prometheus metrics for the listener registry.
type FanoutMetrics struct {
	ActiveListeners   prometheus.Gauge
	PushesTotal       prometheus.Counter
	BroadcastsTotal   prometheus.Counter
	BroadcastsDropped prometheus.Counter
	Deliveries        *prometheus.CounterVec
	ListenersDropped  *prometheus.CounterVec
	CommandQueueDepth prometheus.Gauge
}

// NewFanoutMetrics creates and registers fan-out metrics on the given registry.
func NewFanoutMetrics(reg prometheus.Registerer) *FanoutMetrics {
	m := &FanoutMetrics{
		ActiveListeners: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "active_listeners",
			Help:      "Number of listeners currently registered.",
		}),
		PushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "pushes_total",
			Help:      "Periodic synthetic payloads written to listeners.",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "broadcasts_total",
			Help:      "Broadcast sweeps executed.",
		}),
		BroadcastsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "broadcasts_dropped_total",
			Help:      "Broadcasts discarded because the registry command queue was full or stopped.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "broadcast_deliveries_total",
			Help:      "Per-listener broadcast delivery attempts, by result.",
		}, []string{"result"}),
		ListenersDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "listeners_dropped_total",
			Help:      "Listeners removed after a failed delivery, by reason.",
		}, []string{"reason"}),
		CommandQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "command_queue_depth",
			Help:      "Pending commands in the registry actor queue.",
		}),
	}

	reg.MustRegister(
		m.ActiveListeners,
		m.PushesTotal,
		m.BroadcastsTotal,
		m.BroadcastsDropped,
		m.Deliveries,
		m.ListenersDropped,
		m.CommandQueueDepth,
	)
	return m
}
