package metrics

import "github.com/prometheus/client_golang/prometheus"

// AnalysisMetrics holds Prometheus metrics for the waste-log analysis pipeline.
type AnalysisMetrics struct {
	Requests     *prometheus.CounterVec
	RulesFired   *prometheus.CounterVec
	RiskScore    prometheus.Histogram
	SafetyPolled prometheus.Counter
}

// NewAnalysisMetrics creates and registers analysis metrics on the given registry.
func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	m := &AnalysisMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Waste-log analysis requests, by outcome.",
		}, []string{"outcome"}),
		RulesFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "rules_fired_total",
			Help:      "Heuristic rule firings, by rule.",
		}, []string{"rule"}),
		RiskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "risk_score",
			Help:      "Distribution of computed risk scores.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		SafetyPolled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "safety_polls_total",
			Help:      "Synthetic safety snapshots served to polling clients.",
		}),
	}

	reg.MustRegister(m.Requests, m.RulesFired, m.RiskScore, m.SafetyPolled)
	return m
}

// ObserveRule counts a fired heuristic rule.
func (m *AnalysisMetrics) ObserveRule(rule string) {
	m.RulesFired.WithLabelValues(rule).Inc()
}
