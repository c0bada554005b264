package safety

import (
	"strings"

	"github.com/pscheid92/sitewatch-ai/internal/domain"
)

// Rule maps a waste-log condition to an alert and a risk weight.
type Rule struct {
	Name       string
	Category   domain.Category
	Message    string
	Confidence float64
	Weight     float64
	Matches    func(input domain.WasteLogInput) bool
}

var hazardousMaterials = []string{"chemical", "paint", "solvent"}

// DefaultRules are evaluated in order; every matching rule contributes.
var DefaultRules = []Rule{
	{
		Name:       "hazardous_material",
		Category:   domain.CategoryHazard,
		Message:    "Potential hazardous material detected. Follow hazardous waste protocol.",
		Confidence: 0.95,
		Weight:     0.50,
		Matches: func(in domain.WasteLogInput) bool {
			material := strings.ToLower(in.MaterialType)
			for _, keyword := range hazardousMaterials {
				if strings.Contains(material, keyword) {
					return true
				}
			}
			return false
		},
	},
	{
		Name:       "large_disposal",
		Category:   domain.CategoryWarning,
		Message:    "Large disposal reported. Verify disposal permits and documentation.",
		Confidence: 0.85,
		Weight:     0.20,
		Matches: func(in domain.WasteLogInput) bool {
			return strings.EqualFold(in.DisposalMethod, "disposed") && in.Quantity > 50
		},
	},
	{
		Name:       "very_large_quantity",
		Category:   domain.CategoryWarning,
		Message:    "Very large quantity logged. Consider immediate site review.",
		Confidence: 0.90,
		Weight:     0.20,
		Matches: func(in domain.WasteLogInput) bool {
			return in.Quantity > 200
		},
	},
}
