package domain

import (
	"encoding/json"
	"time"
)

type Category string

const (
	CategoryHazard  Category = "Hazard"
	CategoryWarning Category = "Warning"
	CategoryInfo    Category = "Info"
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// AlertRecord is a single safety alert. The category travels as "type" on the wire.
type AlertRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Category   Category  `json:"type"`
	Message    string    `json:"message"`
	Confidence float64   `json:"confidence"`
}

type PredictionSummary struct {
	RiskScore            float64 `json:"risk_score"`
	NextIncidentEstimate string  `json:"next_incident_estimate"`
}

// AnalysisResponse is the unit exchanged over every interface: polling,
// streaming and analysis.
type AnalysisResponse struct {
	Status      Status
	Alerts      []AlertRecord
	Predictions *PredictionSummary
	Error       string
}

// NewErrorResponse builds an error response carrying only status and message.
func NewErrorResponse(message string) AnalysisResponse {
	return AnalysisResponse{Status: StatusError, Error: message}
}

type okResponseJSON struct {
	Status      Status             `json:"status"`
	Alerts      []AlertRecord      `json:"alerts"`
	Predictions *PredictionSummary `json:"predictions,omitempty"`
}

type errorResponseJSON struct {
	Status Status `json:"status"`
	Error  string `json:"error"`
}

// MarshalJSON renders error responses as exactly {"status","error"} and
// always renders alerts as an array for ok responses.
func (r AnalysisResponse) MarshalJSON() ([]byte, error) {
	if r.Status == StatusError {
		return json.Marshal(errorResponseJSON{Status: r.Status, Error: r.Error})
	}

	alerts := r.Alerts
	if alerts == nil {
		alerts = []AlertRecord{}
	}
	return json.Marshal(okResponseJSON{Status: r.Status, Alerts: alerts, Predictions: r.Predictions})
}

// UnmarshalJSON accepts both response shapes.
func (r *AnalysisResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status      Status             `json:"status"`
		Alerts      []AlertRecord      `json:"alerts"`
		Predictions *PredictionSummary `json:"predictions"`
		Error       string             `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = AnalysisResponse{
		Status:      raw.Status,
		Alerts:      raw.Alerts,
		Predictions: raw.Predictions,
		Error:       raw.Error,
	}
	return nil
}

// WasteLogInput is a caller-submitted waste-log record. Quantity is 0 when
// absent or unparsable.
type WasteLogInput struct {
	MaterialType   string
	DisposalMethod string
	Quantity       float64
}
