package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/core/ports/driving"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService manages sessions and reports across both repositories.
type HistoryService struct {
	sessions driven.SessionRepository
	reports  driven.ReportRepository
	metrics  driven.MetricsRecorder
}

// NewHistoryService creates a new history service.
func NewHistoryService(sessions driven.SessionRepository, reports driven.ReportRepository) *HistoryService {
	return &HistoryService{
		sessions: sessions,
		reports:  reports,
	}
}

// SetMetrics sets the recorder for saved reports.
func (s *HistoryService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// NewSession creates an empty session and makes it current.
func (s *HistoryService) NewSession(ctx context.Context) (string, error) {
	return s.sessions.CreateSession(ctx)
}

// GetSession returns a session by id. An empty id resolves to the current session.
func (s *HistoryService) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		resolved, _, err := s.sessions.LoadMessages(ctx, "")
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			return nil, domain.ErrNotFound
		}
		id = resolved
	}
	return s.sessions.GetSession(ctx, id)
}

// ListSessions returns session summaries, most recently updated first.
func (s *HistoryService) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	return s.sessions.ListSessions(ctx)
}

// RecordAnalysis appends the query and its report to the session transcript
// and, when the CVE was found, saves the report. An empty sessionID continues
// the current session or starts one.
func (s *HistoryService) RecordAnalysis(
	ctx context.Context,
	sessionID string,
	analysis *domain.Analysis,
) (string, error) {
	if analysis == nil {
		return sessionID, fmt.Errorf("%w: nil analysis", domain.ErrInvalidInput)
	}

	exchange := []domain.Message{
		{Role: domain.RoleUser, Content: "Analyze " + analysis.CVEID},
		{Role: domain.RoleAssistant, Content: analysis.Report},
	}
	id, err := s.sessions.UpdateMessages(ctx, sessionID, func(msgs []domain.Message) []domain.Message {
		return append(msgs, exchange...)
	})
	if err != nil {
		return id, fmt.Errorf("save transcript: %w", err)
	}

	if !analysis.Found {
		return id, nil
	}

	if _, err := s.SaveReport(ctx, id, analysis.CVEID, analysis.Report); err != nil {
		return id, err
	}
	return id, nil
}

// SaveReport stores a report under sessionID.
func (s *HistoryService) SaveReport(ctx context.Context, sessionID, cveID, content string) (*domain.ReportRecord, error) {
	id, err := domain.NormalizeCVEID(cveID)
	if err != nil {
		return nil, err
	}
	record, err := s.reports.Save(ctx, sessionID, id, content)
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ReportSaved()
	}
	logger.Debug("saved report %s in session %s", id, sessionID)
	return record, nil
}

// LoadReport returns the stored report for cveID.
func (s *HistoryService) LoadReport(ctx context.Context, cveID, sessionID string) (*domain.ReportRecord, error) {
	id, err := domain.NormalizeCVEID(cveID)
	if err != nil {
		return nil, err
	}
	return s.reports.Load(ctx, id, sessionID)
}

// ListReports returns report summaries, most recent first.
func (s *HistoryService) ListReports(ctx context.Context) ([]domain.ReportSummary, error) {
	return s.reports.List(ctx)
}

// Prune removes sessions and reports older than days. Zero removes
// everything not updated at this instant. Both stores are pruned even if
// the first fails.
func (s *HistoryService) Prune(ctx context.Context, days int) (driving.PruneResult, error) {
	if days < 0 {
		return driving.PruneResult{}, fmt.Errorf("%w: days must not be negative", domain.ErrInvalidInput)
	}

	var result driving.PruneResult
	var errs []error

	n, err := s.sessions.PruneOlderThan(ctx, days)
	if err != nil {
		errs = append(errs, fmt.Errorf("prune sessions: %w", err))
	}
	result.Sessions = n

	n, err = s.reports.PruneOlderThan(ctx, days)
	if err != nil {
		errs = append(errs, fmt.Errorf("prune reports: %w", err))
	}
	result.Reports = n

	return result, errors.Join(errs...)
}
