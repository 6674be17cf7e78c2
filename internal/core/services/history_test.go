package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cvescope/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/cvescope/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cvescope/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driving"
)

func newHistory() (*HistoryService, *memory.SessionStore, *memory.ReportStore) {
	sessions := memory.NewSessionStore()
	reports := memory.NewReportStore(sessions)
	return NewHistoryService(sessions, reports), sessions, reports
}

func foundAnalysis(id, report string) *domain.Analysis {
	return &domain.Analysis{CVEID: id, Found: true, Report: report}
}

func TestHistoryService_RecordAnalysis_StartsSession(t *testing.T) {
	ctx := context.Background()
	history, _, _ := newHistory()
	metrics := &mockMetrics{}
	history.SetMetrics(metrics)

	id, err := history.RecordAnalysis(ctx, "", foundAnalysis("CVE-2021-44228", "report body"))

	require.NoError(t, err)
	require.NotEmpty(t, id)

	session, err := history.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []domain.Message{
		{Role: domain.RoleUser, Content: "Analyze CVE-2021-44228"},
		{Role: domain.RoleAssistant, Content: "report body"},
	}, session.Messages)
	assert.Equal(t, []string{"CVE-2021-44228"}, session.CVEQueries)
	assert.Equal(t, 1, metrics.saved)

	report, err := history.LoadReport(ctx, "cve-2021-44228", id)
	require.NoError(t, err)
	assert.Equal(t, "report body", report.Content)
}

func TestHistoryService_RecordAnalysis_ContinuesCurrent(t *testing.T) {
	ctx := context.Background()
	history, _, _ := newHistory()

	first, err := history.RecordAnalysis(ctx, "", foundAnalysis("CVE-2021-44228", "a"))
	require.NoError(t, err)
	second, err := history.RecordAnalysis(ctx, "", foundAnalysis("CVE-2014-0160", "b"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	session, err := history.GetSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, session.MessageCount())
	assert.Equal(t, []string{"CVE-2021-44228", "CVE-2014-0160"}, session.CVEQueries)
}

func TestHistoryService_RecordAnalysis_Concurrent(t *testing.T) {
	const writers = 10

	backends := []struct {
		name  string
		setup func(t *testing.T) *HistoryService
	}{
		{
			name: "memory",
			setup: func(t *testing.T) *HistoryService {
				history, _, _ := newHistory()
				return history
			},
		},
		{
			name: "jsonfile",
			setup: func(t *testing.T) *HistoryService {
				dir := t.TempDir()
				sessions := jsonfile.NewSessionStore(dir)
				return NewHistoryService(sessions, jsonfile.NewReportStore(dir, sessions))
			},
		},
		{
			name: "sqlite",
			setup: func(t *testing.T) *HistoryService {
				store, err := sqlite.NewStore(t.TempDir())
				require.NoError(t, err)
				t.Cleanup(func() { _ = store.Close() })
				return NewHistoryService(store.SessionStore(), store.ReportStore())
			},
		},
	}

	for _, tt := range backends {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			history := tt.setup(t)
			id, err := history.NewSession(ctx)
			require.NoError(t, err)

			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					cveID := fmt.Sprintf("CVE-2024-%d", 1000+i)
					got, err := history.RecordAnalysis(ctx, id, foundAnalysis(cveID, "report "+cveID))
					if err == nil && got != id {
						err = fmt.Errorf("recorded into %s, want %s", got, id)
					}
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			session, err := history.GetSession(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 2*writers, session.MessageCount())
			assert.Len(t, session.CVEQueries, writers)

			reports, err := history.ListReports(ctx)
			require.NoError(t, err)
			assert.Len(t, reports, writers)
		})
	}
}

func TestHistoryService_RecordAnalysis_NotFoundSkipsReport(t *testing.T) {
	ctx := context.Background()
	history, _, _ := newHistory()
	analysis := &domain.Analysis{CVEID: "CVE-2099-99999", Report: NotFoundMessage("CVE-2099-99999")}

	id, err := history.RecordAnalysis(ctx, "", analysis)
	require.NoError(t, err)

	reports, err := history.ListReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)

	session, err := history.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, session.MessageCount())
	assert.Empty(t, session.CVEQueries)
}

func TestHistoryService_RecordAnalysis_Nil(t *testing.T) {
	history, _, _ := newHistory()

	_, err := history.RecordAnalysis(context.Background(), "", nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistoryService_GetSession_NoCurrent(t *testing.T) {
	history, _, _ := newHistory()

	_, err := history.GetSession(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryService_LoadReport_InvalidID(t *testing.T) {
	history, _, _ := newHistory()

	_, err := history.LoadReport(context.Background(), "heartbleed", "")

	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestHistoryService_NewSessionBecomesCurrent(t *testing.T) {
	ctx := context.Background()
	history, _, _ := newHistory()

	old, err := history.RecordAnalysis(ctx, "", foundAnalysis("CVE-2021-44228", "a"))
	require.NoError(t, err)
	fresh, err := history.NewSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, old, fresh)

	id, err := history.RecordAnalysis(ctx, "", foundAnalysis("CVE-2014-0160", "b"))
	require.NoError(t, err)
	assert.Equal(t, fresh, id)

	summaries, err := history.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestHistoryService_Prune(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	history, sessions, reports := newHistory()
	sessions.SetClock(clock)
	reports.SetClock(clock)

	_, err := history.RecordAnalysis(ctx, "", foundAnalysis("CVE-2021-44228", "old"))
	require.NoError(t, err)

	now = now.AddDate(0, 0, 45)
	_, err = history.NewSession(ctx)
	require.NoError(t, err)

	result, err := history.Prune(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sessions)
	assert.Equal(t, 1, result.Reports)

	summaries, err := history.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestHistoryService_Prune_ZeroDaysRemovesAll(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	history, sessions, reports := newHistory()
	sessions.SetClock(clock)
	reports.SetClock(clock)

	_, err := history.RecordAnalysis(ctx, "", foundAnalysis("CVE-2021-44228", "report"))
	require.NoError(t, err)

	now = now.Add(time.Minute)
	result, err := history.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, driving.PruneResult{Sessions: 1, Reports: 1}, result)

	summaries, err := history.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestHistoryService_Prune_NegativeDays(t *testing.T) {
	history, _, _ := newHistory()

	_, err := history.Prune(context.Background(), -1)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

type failingReports struct {
	*memory.ReportStore
}

func (failingReports) PruneOlderThan(context.Context, int) (int, error) {
	return 0, errors.New("disk full")
}

func TestHistoryService_Prune_ContinuesAfterError(t *testing.T) {
	sessions := memory.NewSessionStore()
	history := NewHistoryService(sessions, failingReports{memory.NewReportStore(sessions)})

	result, err := history.Prune(context.Background(), 30)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "prune reports: disk full")
	assert.Equal(t, 0, result.Sessions)
}

func TestHistoryService_SaveReport(t *testing.T) {
	ctx := context.Background()
	history, sessions, _ := newHistory()
	sid, err := sessions.CreateSession(ctx)
	require.NoError(t, err)

	record, err := history.SaveReport(ctx, sid, "cve-2014-0160", "heartbleed report")
	require.NoError(t, err)
	assert.Equal(t, "CVE-2014-0160", record.CVEID)
	assert.Equal(t, sid, record.SessionID)

	_, err = history.SaveReport(ctx, sid, "not-a-cve", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}
