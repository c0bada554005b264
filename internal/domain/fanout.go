package domain

// AlertGenerator produces synthetic safety alerts.
type AlertGenerator interface {
	Generate() AnalysisResponse
}

// WasteLogAnalyzer maps a waste-log record to rule-triggered alerts.
type WasteLogAnalyzer interface {
	Analyze(input WasteLogInput) AnalysisResponse
}

// Broadcaster fans a payload out to every connected listener. Broadcast
// must not block the caller and never reports delivery failures.
type Broadcaster interface {
	Broadcast(payload AnalysisResponse)
}
