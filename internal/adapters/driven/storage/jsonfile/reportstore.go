package jsonfile

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// Ensure ReportStore implements the interface.
var _ driven.ReportRepository = (*ReportStore)(nil)

type reportDocument struct {
	Version     string        `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	LastUpdated time.Time     `json:"last_updated"`
	Reports     []reportEntry `json:"reports"`
}

type reportEntry struct {
	ID            string    `json:"id"`
	CVEID         string    `json:"cve_id"`
	SessionID     string    `json:"session_id"`
	QueryTime     time.Time `json:"query_time"`
	ReportContent string    `json:"report_content"`
	ContentLength int       `json:"content_length"`
}

// ReportStore keeps reports in cve_reports.json.
type ReportStore struct {
	mu       sync.Mutex
	path     string
	recorder driven.CVEQueryRecorder
	now      func() time.Time
}

// NewReportStore creates a store at <dataDir>/cve_reports.json. Saved
// queries are forwarded to recorder, which may be nil.
func NewReportStore(dataDir string, recorder driven.CVEQueryRecorder) *ReportStore {
	return &ReportStore{
		path:     filepath.Join(dataDir, ReportsFile),
		recorder: recorder,
		now:      time.Now,
	}
}

// SetClock overrides the time source.
func (s *ReportStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Path returns the document path.
func (s *ReportStore) Path() string {
	return s.path
}

// Save upserts the report for (cveID, sessionID), keeps the most recent
// domain.MaxStoredReports and records the query on the session.
func (s *ReportStore) Save(ctx context.Context, sessionID, cveID, content string) (*domain.ReportRecord, error) {
	cveID = strings.ToUpper(cveID)

	var saved domain.ReportRecord
	err := s.mutate(func(doc *reportDocument, now time.Time) {
		saved = domain.ReportRecord{
			ID:        uuid.New().String(),
			CVEID:     cveID,
			SessionID: sessionID,
			QueryTime: now,
			Content:   content,
		}
		for i := range doc.Reports {
			if doc.Reports[i].CVEID == cveID && doc.Reports[i].SessionID == sessionID {
				saved.ID = doc.Reports[i].ID
				doc.Reports[i] = fromRecord(saved)
				break
			}
		}
		if indexOf(doc.Reports, saved.ID) < 0 {
			doc.Reports = append(doc.Reports, fromRecord(saved))
		}

		if len(doc.Reports) > domain.MaxStoredReports {
			sort.SliceStable(doc.Reports, func(i, j int) bool {
				return doc.Reports[i].QueryTime.After(doc.Reports[j].QueryTime)
			})
			doc.Reports = doc.Reports[:domain.MaxStoredReports]
		}
	})
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		if err := s.recorder.RecordCVEQuery(ctx, sessionID, cveID); err != nil {
			logger.Warn("record query %s for session %s: %v", cveID, sessionID, err)
		}
	}
	return &saved, nil
}

// Load returns the session's report for cveID, or the most recent one.
func (s *ReportStore) Load(_ context.Context, cveID, sessionID string) (*domain.ReportRecord, error) {
	cveID = strings.ToUpper(cveID)
	doc := s.view()

	var latest *reportEntry
	for i := range doc.Reports {
		entry := &doc.Reports[i]
		if entry.CVEID != cveID {
			continue
		}
		if sessionID != "" && entry.SessionID == sessionID {
			record := entry.toDomain()
			return &record, nil
		}
		if latest == nil || entry.QueryTime.After(latest.QueryTime) {
			latest = entry
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	record := latest.toDomain()
	return &record, nil
}

// List returns summaries, most recent first.
func (s *ReportStore) List(_ context.Context) ([]domain.ReportSummary, error) {
	doc := s.view()
	result := make([]domain.ReportSummary, 0, len(doc.Reports))
	for i := range doc.Reports {
		record := doc.Reports[i].toDomain()
		result = append(result, record.Summary())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].QueryTime.After(result[j].QueryTime)
	})
	return result, nil
}

// PruneOlderThan removes reports queried more than days ago.
func (s *ReportStore) PruneOlderThan(_ context.Context, days int) (int, error) {
	removed := 0
	err := s.mutate(func(doc *reportDocument, now time.Time) {
		cutoff := now.AddDate(0, 0, -days)
		kept := doc.Reports[:0]
		for _, entry := range doc.Reports {
			if entry.QueryTime.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, entry)
		}
		doc.Reports = kept
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *ReportStore) mutate(fn func(doc *reportDocument, now time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	doc := newReportDocument(now)
	if _, err := readDocument(s.path, doc); err != nil {
		return err
	}

	fn(doc, now)
	doc.LastUpdated = now
	return writeDocument(s.path, doc)
}

func (s *ReportStore) view() *reportDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := newReportDocument(s.now())
	if _, err := readDocument(s.path, doc); err != nil {
		logger.Warn("could not read %s: %v", filepath.Base(s.path), err)
		return newReportDocument(s.now())
	}
	return doc
}

func newReportDocument(now time.Time) *reportDocument {
	return &reportDocument{
		Version:     documentVersion,
		CreatedAt:   now,
		LastUpdated: now,
		Reports:     []reportEntry{},
	}
}

func indexOf(entries []reportEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

func fromRecord(r domain.ReportRecord) reportEntry {
	return reportEntry{
		ID:            r.ID,
		CVEID:         r.CVEID,
		SessionID:     r.SessionID,
		QueryTime:     r.QueryTime,
		ReportContent: r.Content,
		ContentLength: r.ContentLength(),
	}
}

func (e *reportEntry) toDomain() domain.ReportRecord {
	return domain.ReportRecord{
		ID:        e.ID,
		CVEID:     e.CVEID,
		SessionID: e.SessionID,
		QueryTime: e.QueryTime,
		Content:   e.ReportContent,
	}
}
