package contracts

import "time"

// ScanResult is the top-level aggregate for one scan invocation.
// Consumed by export, notification and the API; never fed back into the
// pipeline.
type ScanResult struct {
	ScanTimestamp time.Time `json:"scan_timestamp"`
	Universe      []string  `json:"universe"`
	Signals       []Signal  `json:"signals"` // ranked, possibly truncated to top-N
	ScannedCount  int       `json:"scanned_count"`
	PassedCount   int       `json:"passed_count"`

	// Provenance
	DataProvider     string     `json:"data_provider,omitempty"`
	Timeframe        string     `json:"timeframe,omitempty"`
	LastBarTimestamp *time.Time `json:"last_bar_timestamp,omitempty"`

	// Actionable stage output (present when the filter ran)
	ActionableSignals []ActionableSignal `json:"actionable_signals,omitempty"`
	RejectedSignals   []RejectedSignal   `json:"rejected_signals,omitempty"`
	ActionableCount   int                `json:"actionable_count"`

	// Run readiness (present when the checker ran)
	ReadinessStatus  string `json:"readiness_status,omitempty"`
	ReadinessMessage string `json:"readiness_message,omitempty"`
	ReadinessCanRun  *bool  `json:"readiness_can_run,omitempty"`
}
