package domain

import (
	"time"
	"unicode/utf8"
)

// MaxStoredReports bounds the report collection.
// Older reports by QueryTime are dropped past this size.
const MaxStoredReports = 100

// ReportRecord is one persisted analysis artifact.
// At most one record exists per (CVEID, SessionID).
type ReportRecord struct {
	ID string

	// CVEID is the uppercase vulnerability identifier.
	CVEID string

	// SessionID is a lookup key into sessions. Deleting a session never
	// deletes its reports.
	SessionID string

	QueryTime time.Time
	Content   string
}

// ContentLength returns the length of Content in characters.
func (r *ReportRecord) ContentLength() int {
	return utf8.RuneCountInString(r.Content)
}

// Summary builds the listing view of the record.
func (r *ReportRecord) Summary() ReportSummary {
	return ReportSummary{
		ID:            r.ID,
		CVEID:         r.CVEID,
		SessionID:     r.SessionID,
		QueryTime:     r.QueryTime,
		ContentLength: r.ContentLength(),
		Preview:       Truncate(r.Content, ReportPreviewLength),
	}
}

// ReportSummary is the listing view of a ReportRecord.
type ReportSummary struct {
	ID            string
	CVEID         string
	SessionID     string
	QueryTime     time.Time
	ContentLength int
	Preview       string
}

// Analysis is the result of querying and analysing one identifier.
type Analysis struct {
	// CVEID is the normalised identifier that was requested.
	CVEID string

	// Found is false when the registry had no record.
	Found bool

	// Info is nil when Found is false.
	Info *VulnerabilityInfo

	// Report is the rendered report, or the not-found message.
	Report string
}
