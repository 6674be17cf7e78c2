package memory

import (
	"context"
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

// ReportStore is an in-memory implementation of driven.ReportRepository.
type ReportStore struct {
	mu       sync.RWMutex
	reports  []domain.ReportRecord
	recorder driven.CVEQueryRecorder
	now      func() time.Time
}

// NewReportStore creates a new in-memory report store. recorder may be nil.
func NewReportStore(recorder driven.CVEQueryRecorder) *ReportStore {
	return &ReportStore{
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

// Save upserts the report for (cveID, sessionID) and bounds the collection.
func (s *ReportStore) Save(ctx context.Context, sessionID, cveID, content string) (*domain.ReportRecord, error) {
	cveID = strings.ToUpper(cveID)

	s.mu.Lock()
	now := s.now()
	idx := -1
	for i := range s.reports {
		if s.reports[i].CVEID == cveID && s.reports[i].SessionID == sessionID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		s.reports[idx].Content = content
		s.reports[idx].QueryTime = now
	} else {
		s.reports = append(s.reports, domain.ReportRecord{
			ID:        uuid.New().String(),
			CVEID:     cveID,
			SessionID: sessionID,
			QueryTime: now,
			Content:   content,
		})
		idx = len(s.reports) - 1
	}
	saved := s.reports[idx]

	if len(s.reports) > domain.MaxStoredReports {
		sort.SliceStable(s.reports, func(i, j int) bool {
			return s.reports[i].QueryTime.After(s.reports[j].QueryTime)
		})
		s.reports = s.reports[:domain.MaxStoredReports]
	}
	s.mu.Unlock()

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

	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ReportRecord
	for i := range s.reports {
		r := &s.reports[i]
		if r.CVEID != cveID {
			continue
		}
		if sessionID != "" && r.SessionID == sessionID {
			out := *r
			return &out, nil
		}
		if latest == nil || r.QueryTime.After(latest.QueryTime) {
			latest = r
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	out := *latest
	return &out, nil
}

// List returns summaries, most recent first.
func (s *ReportStore) List(_ context.Context) ([]domain.ReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ReportSummary, 0, len(s.reports))
	for i := range s.reports {
		result = append(result, s.reports[i].Summary())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].QueryTime.After(result[j].QueryTime)
	})
	return result, nil
}

// PruneOlderThan removes reports older than days.
func (s *ReportStore) PruneOlderThan(_ context.Context, days int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().AddDate(0, 0, -days)
	kept := s.reports[:0]
	for _, r := range s.reports {
		if !r.QueryTime.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	removed := len(s.reports) - len(kept)
	s.reports = kept
	return removed, nil
}
