package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// ReportStore implements driven.ReportRepository.
type ReportStore struct {
	store    *Store
	recorder driven.CVEQueryRecorder
}

var _ driven.ReportRepository = (*ReportStore)(nil)

// SetRecorder replaces the query recorder. nil disables recording.
func (s *ReportStore) SetRecorder(recorder driven.CVEQueryRecorder) {
	s.recorder = recorder
}

// Save upserts the report for (cveID, sessionID), keeps the most recent
// domain.MaxStoredReports and records the query on the session.
func (s *ReportStore) Save(ctx context.Context, sessionID, cveID, content string) (*domain.ReportRecord, error) {
	cveID = strings.ToUpper(cveID)

	var saved domain.ReportRecord
	err := s.store.inTx(ctx, func(tx *sql.Tx, now time.Time) error {
		saved = domain.ReportRecord{
			ID:        uuid.New().String(),
			CVEID:     cveID,
			SessionID: sessionID,
			QueryTime: now,
			Content:   content,
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reports (id, cve_id, session_id, query_time, content, content_length)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(cve_id, session_id) DO UPDATE SET
				query_time = excluded.query_time,
				content = excluded.content,
				content_length = excluded.content_length
		`, saved.ID, cveID, sessionID, toNanos(now), content, saved.ContentLength())
		if err != nil {
			return fmt.Errorf("%w: saving report: %w", domain.ErrStorageWrite, err)
		}

		err = tx.QueryRowContext(ctx,
			"SELECT id FROM reports WHERE cve_id = ? AND session_id = ?",
			cveID, sessionID).Scan(&saved.ID)
		if err != nil {
			return fmt.Errorf("%w: reading report id: %w", domain.ErrStorageRead, err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM reports WHERE id NOT IN (
				SELECT id FROM reports ORDER BY query_time DESC LIMIT ?
			)
		`, domain.MaxStoredReports)
		if err != nil {
			return fmt.Errorf("%w: trimming reports: %w", domain.ErrStorageWrite, err)
		}
		return nil
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
func (s *ReportStore) Load(ctx context.Context, cveID, sessionID string) (*domain.ReportRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, cve_id, session_id, query_time, content
		FROM reports WHERE cve_id = ?
		ORDER BY (session_id = ? AND ? <> '') DESC, query_time DESC
		LIMIT 1
	`, strings.ToUpper(cveID), sessionID, sessionID)

	report, err := scanReport(row)
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// List returns summaries, most recent first.
func (s *ReportStore) List(ctx context.Context) ([]domain.ReportSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, cve_id, session_id, query_time, content
		FROM reports ORDER BY query_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying reports: %w", domain.ErrStorageRead, err)
	}
	defer rows.Close()

	result := []domain.ReportSummary{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, report.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating reports: %w", domain.ErrStorageRead, err)
	}
	return result, nil
}

// PruneOlderThan removes reports older than days.
func (s *ReportStore) PruneOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := s.store.clock().AddDate(0, 0, -days)
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM reports WHERE query_time < ?", toNanos(cutoff))
	if err != nil {
		return 0, fmt.Errorf("%w: pruning reports: %w", domain.ErrStorageWrite, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: pruning reports: %w", domain.ErrStorageWrite, err)
	}
	return int(removed), nil
}

// scanReport decodes one reports row. sql.ErrNoRows is returned unwrapped.
func scanReport(row scanner) (*domain.ReportRecord, error) {
	var (
		report    domain.ReportRecord
		queryTime int64
	)
	if err := row.Scan(&report.ID, &report.CVEID, &report.SessionID, &queryTime, &report.Content); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scanning report: %w", domain.ErrStorageRead, err)
	}
	report.QueryTime = fromNanos(queryTime)
	return &report, nil
}
