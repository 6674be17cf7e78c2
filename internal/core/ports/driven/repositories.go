package driven

import (
	"context"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

// SessionRepository persists conversation sessions.
// Every mutation is applied to the whole collection atomically.
type SessionRepository interface {
	// CreateSession creates an empty session, makes it current and returns its id.
	CreateSession(ctx context.Context) (string, error)

	// AppendMessages replaces the session's transcript with the user and
	// assistant entries of msgs. If id does not exist a new session is
	// created and written instead; the returned id is authoritative.
	AppendMessages(ctx context.Context, id string, msgs []domain.Message) (string, error)

	// UpdateMessages replaces the transcript of id with fn's result while
	// holding the store's lock, so concurrent updates are not lost. An empty
	// id resolves like LoadMessages. When nothing resolves or id is unknown,
	// a new session is created and fn receives an empty transcript. The
	// returned id is authoritative.
	UpdateMessages(ctx context.Context, id string, fn func([]domain.Message) []domain.Message) (string, error)

	// LoadMessages returns a session's transcript. An empty id resolves to
	// the current session, then the most recently updated one. Returns
	// ("", empty) when nothing matches.
	LoadMessages(ctx context.Context, id string) (string, []domain.Message, error)

	// GetSession returns a session by id, or domain.ErrNotFound.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns summaries ordered by LastUpdated descending.
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)

	// PruneOlderThan removes sessions not updated within days.
	// Returns the number removed.
	PruneOlderThan(ctx context.Context, days int) (int, error)

	CVEQueryRecorder
}

// CVEQueryRecorder records which identifiers were queried in a session.
type CVEQueryRecorder interface {
	// RecordCVEQuery adds cveID (uppercased) to the session's query set.
	// Repeated calls are no-ops. An unknown session is ignored.
	RecordCVEQuery(ctx context.Context, sessionID, cveID string) error
}

// ReportRepository persists analysis reports.
type ReportRepository interface {
	// Save upserts the report for (cveID, sessionID), keeping at most
	// domain.MaxStoredReports records, then records the query on the
	// session side.
	Save(ctx context.Context, sessionID, cveID, content string) (*domain.ReportRecord, error)

	// Load returns the report for cveID, preferring sessionID's record and
	// otherwise the most recent one. Returns domain.ErrNotFound if absent.
	Load(ctx context.Context, cveID, sessionID string) (*domain.ReportRecord, error)

	// List returns summaries ordered by QueryTime descending.
	List(ctx context.Context) ([]domain.ReportSummary, error)

	// PruneOlderThan removes reports older than days. Returns the number removed.
	PruneOlderThan(ctx context.Context, days int) (int, error)
}
