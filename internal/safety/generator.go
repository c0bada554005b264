package safety

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sitewatch-ai/internal/domain"
)

const (
	minSyntheticAlerts  = 1
	maxSyntheticAlerts  = 3
	minAlertConfidence  = 0.70
	maxAlertConfidence  = 0.99
	maxSyntheticHorizon = 24 // hours
)

var categories = []domain.Category{
	domain.CategoryHazard,
	domain.CategoryWarning,
	domain.CategoryInfo,
}

var syntheticMessages = []string{
	"Worker not wearing helmet detected.",
	"Unsafe material stacking detected.",
	"All clear in Zone 3.",
	"High risk of slip in wet area.",
	"No issues detected.",
}

// Generator produces synthetic safety alerts and a risk prediction.
type Generator struct {
	random *Random
	clock  clockwork.Clock
}

func NewGenerator(random *Random, clock clockwork.Clock) *Generator {
	return &Generator{random: random, clock: clock}
}

// Generate returns 1-3 randomly chosen alerts plus a prediction. It never fails.
func (g *Generator) Generate() domain.AnalysisResponse {
	now := g.clock.Now().UTC()

	count := g.random.Between(minSyntheticAlerts, maxSyntheticAlerts)
	alerts := make([]domain.AlertRecord, 0, count)
	for range count {
		alerts = append(alerts, domain.AlertRecord{
			Timestamp:  now,
			Category:   categories[g.random.IntN(len(categories))],
			Message:    syntheticMessages[g.random.IntN(len(syntheticMessages))],
			Confidence: g.random.Uniform(minAlertConfidence, maxAlertConfidence),
		})
	}

	return domain.AnalysisResponse{
		Status: domain.StatusOK,
		Alerts: alerts,
		Predictions: &domain.PredictionSummary{
			RiskScore:            g.random.Uniform(0, 1),
			NextIncidentEstimate: formatHours(g.random.Between(1, maxSyntheticHorizon)),
		},
	}
}

func formatHours(hours int) string {
	return fmt.Sprintf("%d hours", hours)
}
