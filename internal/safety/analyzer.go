package safety

import (
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sitewatch-ai/internal/domain"
)

const (
	baseRisk           = 0.20
	maxAnalysisHorizon = 72 // hours
)

// RuleObserver is notified for every rule that fires.
type RuleObserver func(ruleName string)

// Analyzer applies heuristic rules to waste-log records.
type Analyzer struct {
	rules    []Rule
	random   *Random
	clock    clockwork.Clock
	observer RuleObserver
}

// NewAnalyzer creates an analyzer over DefaultRules. observer may be nil.
func NewAnalyzer(random *Random, clock clockwork.Clock, observer RuleObserver) *Analyzer {
	return &Analyzer{
		rules:    DefaultRules,
		random:   random,
		clock:    clock,
		observer: observer,
	}
}

// Analyze evaluates every rule in order. Alerts follow rule order and the
// risk score is the clamped sum of the base risk and each fired rule's weight.
func (a *Analyzer) Analyze(input domain.WasteLogInput) domain.AnalysisResponse {
	now := a.clock.Now().UTC()

	alerts := make([]domain.AlertRecord, 0, len(a.rules))
	risk := baseRisk
	for _, rule := range a.rules {
		if !rule.Matches(input) {
			continue
		}
		alerts = append(alerts, domain.AlertRecord{
			Timestamp:  now,
			Category:   rule.Category,
			Message:    rule.Message,
			Confidence: rule.Confidence,
		})
		risk += rule.Weight
		if a.observer != nil {
			a.observer(rule.Name)
		}
	}

	return domain.AnalysisResponse{
		Status: domain.StatusOK,
		Alerts: alerts,
		Predictions: &domain.PredictionSummary{
			RiskScore:            clamp01(round2(risk)),
			NextIncidentEstimate: formatHours(a.random.Between(1, maxAnalysisHorizon)),
		},
	}
}
