package mcp

import (
	"context"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driving"
)

// mockAnalyzer is a mock implementation of driving.Analyzer.
type mockAnalyzer struct {
	analysis *domain.Analysis
	err      error
	calls    []string
}

func (m *mockAnalyzer) QueryAndAnalyze(_ context.Context, id string) (*domain.Analysis, error) {
	m.calls = append(m.calls, id)
	return m.analysis, m.err
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	sessions  []domain.SessionSummary
	session   *domain.Session
	reports   []domain.ReportSummary
	report    *domain.ReportRecord
	sessionID string
	err       error

	recorded   []*domain.Analysis
	loadedWith []string
}

func (m *mockHistoryService) NewSession(_ context.Context) (string, error) {
	return m.sessionID, m.err
}

func (m *mockHistoryService) GetSession(_ context.Context, _ string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockHistoryService) ListSessions(_ context.Context) ([]domain.SessionSummary, error) {
	return m.sessions, m.err
}

func (m *mockHistoryService) RecordAnalysis(_ context.Context, _ string, a *domain.Analysis) (string, error) {
	m.recorded = append(m.recorded, a)
	return m.sessionID, m.err
}

func (m *mockHistoryService) SaveReport(_ context.Context, _, _, _ string) (*domain.ReportRecord, error) {
	return m.report, m.err
}

func (m *mockHistoryService) LoadReport(_ context.Context, cveID, sessionID string) (*domain.ReportRecord, error) {
	m.loadedWith = append(m.loadedWith, cveID+"|"+sessionID)
	return m.report, m.err
}

func (m *mockHistoryService) ListReports(_ context.Context) ([]domain.ReportSummary, error) {
	return m.reports, m.err
}

func (m *mockHistoryService) Prune(_ context.Context, _ int) (driving.PruneResult, error) {
	return driving.PruneResult{}, m.err
}
