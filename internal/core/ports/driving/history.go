package driving

import (
	"context"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

// HistoryService manages stored sessions and reports.
type HistoryService interface {
	// NewSession creates an empty session and makes it current.
	NewSession(ctx context.Context) (string, error)

	// GetSession returns a session by id. An empty id resolves to the
	// current session. Returns domain.ErrNotFound if nothing matches.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns session summaries, most recently updated first.
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)

	// RecordAnalysis appends the query/report exchange to the session
	// transcript and, when the CVE was found, saves the report.
	// Returns the authoritative session id.
	RecordAnalysis(ctx context.Context, sessionID string, analysis *domain.Analysis) (string, error)

	// SaveReport stores a report and records the query in the session.
	SaveReport(ctx context.Context, sessionID, cveID, content string) (*domain.ReportRecord, error)

	// LoadReport returns the stored report for cveID.
	LoadReport(ctx context.Context, cveID, sessionID string) (*domain.ReportRecord, error)

	// ListReports returns report summaries, most recent first.
	ListReports(ctx context.Context) ([]domain.ReportSummary, error)

	// Prune removes sessions and reports older than days.
	Prune(ctx context.Context, days int) (PruneResult, error)
}

// PruneResult reports how many records a prune removed.
type PruneResult struct {
	Sessions int
	Reports  int
}
