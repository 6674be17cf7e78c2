package driven

import "time"

// MetricsRecorder receives operational measurements.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	// RegistryRequest records one registry attempt and its outcome
	// ("ok", "not_found", "retry", "failed").
	RegistryRequest(outcome string, d time.Duration)

	// Generation records one text-generation call against model.
	Generation(model string, ok bool, d time.Duration)

	// ReportSaved records a persisted report.
	ReportSaved()
}
