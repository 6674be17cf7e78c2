package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
)

const metaCurrentSession = "current_session_id"

// SessionStore implements driven.SessionRepository.
type SessionStore struct {
	store *Store
}

var _ driven.SessionRepository = (*SessionStore)(nil)

type messageJSON struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateSession inserts an empty session and makes it current.
func (s *SessionStore) CreateSession(ctx context.Context) (string, error) {
	var id string
	err := s.store.inTx(ctx, func(tx *sql.Tx, now time.Time) error {
		var err error
		id, err = createSession(ctx, tx, now)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// AppendMessages replaces the transcript of id. An unknown id gets a new
// session; the returned id is authoritative.
func (s *SessionStore) AppendMessages(ctx context.Context, id string, msgs []domain.Message) (string, error) {
	encoded, err := encodeMessages(domain.FilterPersistable(msgs))
	if err != nil {
		return id, err
	}

	err = s.store.inTx(ctx, func(tx *sql.Tx, now time.Time) error {
		lastUpdated, err := selectLastUpdated(ctx, tx, id)
		if isNoRows(err) {
			if id, err = createSession(ctx, tx, now); err != nil {
				return err
			}
			lastUpdated = now
		} else if err != nil {
			return err
		}
		if now.After(lastUpdated) {
			lastUpdated = now
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE sessions SET messages = ?, last_updated = ? WHERE id = ?",
			encoded, toNanos(lastUpdated), id)
		if err != nil {
			return fmt.Errorf("%w: updating session: %w", domain.ErrStorageWrite, err)
		}
		return nil
	})
	return id, err
}

// UpdateMessages applies fn to the transcript of id inside one transaction.
// Resolution follows LoadMessages; when nothing resolves a session is created.
func (s *SessionStore) UpdateMessages(
	ctx context.Context,
	id string,
	fn func([]domain.Message) []domain.Message,
) (string, error) {
	err := s.store.inTx(ctx, func(tx *sql.Tx, now time.Time) error {
		resolved, err := resolveSessionID(ctx, tx, id)
		if err != nil {
			return err
		}
		id = resolved

		session, err := scanSession(tx.QueryRowContext(ctx, `
			SELECT id, created_at, last_updated, messages, cve_queries
			FROM sessions WHERE id = ?
		`, id))
		if isNoRows(err) {
			if id, err = createSession(ctx, tx, now); err != nil {
				return err
			}
			session = &domain.Session{ID: id, LastUpdated: now, Messages: []domain.Message{}}
		} else if err != nil {
			return err
		}
		session.Touch(now)

		encoded, err := encodeMessages(domain.FilterPersistable(fn(session.Messages)))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE sessions SET messages = ?, last_updated = ? WHERE id = ?",
			encoded, toNanos(session.LastUpdated), id)
		if err != nil {
			return fmt.Errorf("%w: updating session: %w", domain.ErrStorageWrite, err)
		}
		return nil
	})
	return id, err
}

// LoadMessages returns the transcript for id. An empty id resolves the
// current session, then the most recently updated one.
func (s *SessionStore) LoadMessages(ctx context.Context, id string) (string, []domain.Message, error) {
	id, err := resolveSessionID(ctx, s.store.db, id)
	if err != nil {
		return "", nil, err
	}
	if id == "" {
		return "", []domain.Message{}, nil
	}

	session, err := s.GetSession(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return "", []domain.Message{}, nil
	}
	if err != nil {
		return "", nil, err
	}
	return session.ID, session.Messages, nil
}

// GetSession returns one session, or domain.ErrNotFound.
func (s *SessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, created_at, last_updated, messages, cve_queries
		FROM sessions WHERE id = ?
	`, id)
	session, err := scanSession(row)
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns summaries, most recently updated first.
func (s *SessionStore) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, created_at, last_updated, messages, cve_queries
		FROM sessions ORDER BY last_updated DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sessions: %w", domain.ErrStorageRead, err)
	}
	defer rows.Close()

	result := []domain.SessionSummary{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, session.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sessions: %w", domain.ErrStorageRead, err)
	}
	return result, nil
}

// RecordCVEQuery adds cveID to the session's query set. Unknown sessions are ignored.
func (s *SessionStore) RecordCVEQuery(ctx context.Context, sessionID, cveID string) error {
	return s.store.inTx(ctx, func(tx *sql.Tx, now time.Time) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, created_at, last_updated, messages, cve_queries
			FROM sessions WHERE id = ?
		`, sessionID)
		session, err := scanSession(row)
		if isNoRows(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if !session.AddCVEQuery(cveID) {
			return nil
		}
		session.Touch(now)

		queries, err := json.Marshal(session.CVEQueries)
		if err != nil {
			return fmt.Errorf("%w: encoding queries: %w", domain.ErrStorageWrite, err)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE sessions SET cve_queries = ?, last_updated = ? WHERE id = ?",
			string(queries), toNanos(session.LastUpdated), sessionID)
		if err != nil {
			return fmt.Errorf("%w: updating session: %w", domain.ErrStorageWrite, err)
		}
		return nil
	})
}

// PruneOlderThan removes sessions not updated within days and clears a
// dangling current-session pointer.
func (s *SessionStore) PruneOlderThan(ctx context.Context, days int) (int, error) {
	var removed int64
	err := s.store.inTx(ctx, func(tx *sql.Tx, now time.Time) error {
		cutoff := now.AddDate(0, 0, -days)
		res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE last_updated < ?", toNanos(cutoff))
		if err != nil {
			return fmt.Errorf("%w: pruning sessions: %w", domain.ErrStorageWrite, err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("%w: pruning sessions: %w", domain.ErrStorageWrite, err)
		}
		_, err = tx.ExecContext(ctx,
			"DELETE FROM meta WHERE key = ? AND value NOT IN (SELECT id FROM sessions)",
			metaCurrentSession)
		if err != nil {
			return fmt.Errorf("%w: clearing current session: %w", domain.ErrStorageWrite, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

func createSession(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	id := uuid.New().String()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, last_updated, messages, cve_queries)
		VALUES (?, ?, ?, '[]', '[]')
	`, id, toNanos(now), toNanos(now))
	if err != nil {
		return "", fmt.Errorf("%w: inserting session: %w", domain.ErrStorageWrite, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaCurrentSession, id)
	if err != nil {
		return "", fmt.Errorf("%w: setting current session: %w", domain.ErrStorageWrite, err)
	}
	return id, nil
}

func selectLastUpdated(ctx context.Context, tx *sql.Tx, id string) (time.Time, error) {
	var updated int64
	err := tx.QueryRowContext(ctx, "SELECT last_updated FROM sessions WHERE id = ?", id).Scan(&updated)
	if err != nil {
		if isNoRows(err) {
			return time.Time{}, err
		}
		return time.Time{}, fmt.Errorf("%w: reading session: %w", domain.ErrStorageRead, err)
	}
	return fromNanos(updated), nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// resolveSessionID maps an empty id to the current session, then the most
// recently updated one. It returns "" when no session exists.
func resolveSessionID(ctx context.Context, q rowQuerier, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	err := q.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaCurrentSession).Scan(&id)
	if err != nil && !isNoRows(err) {
		return "", fmt.Errorf("%w: reading current session: %w", domain.ErrStorageRead, err)
	}
	if id != "" {
		return id, nil
	}
	err = q.QueryRowContext(ctx, "SELECT id FROM sessions ORDER BY last_updated DESC LIMIT 1").Scan(&id)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: reading latest session: %w", domain.ErrStorageRead, err)
	}
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSession decodes one sessions row. sql.ErrNoRows is returned unwrapped.
func scanSession(row scanner) (*domain.Session, error) {
	var (
		session              domain.Session
		created, updated     int64
		messages, cveQueries string
	)
	if err := row.Scan(&session.ID, &created, &updated, &messages, &cveQueries); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scanning session: %w", domain.ErrStorageRead, err)
	}
	session.CreatedAt = fromNanos(created)
	session.LastUpdated = fromNanos(updated)

	var entries []messageJSON
	if err := json.Unmarshal([]byte(messages), &entries); err != nil {
		return nil, fmt.Errorf("%w: decoding messages of %s: %w", domain.ErrStorageRead, session.ID, err)
	}
	session.Messages = make([]domain.Message, len(entries))
	for i, e := range entries {
		session.Messages[i] = domain.Message{Role: domain.Role(e.Role), Content: e.Content}
	}

	session.CVEQueries = []string{}
	if err := json.Unmarshal([]byte(cveQueries), &session.CVEQueries); err != nil {
		return nil, fmt.Errorf("%w: decoding queries of %s: %w", domain.ErrStorageRead, session.ID, err)
	}
	return &session, nil
}

func encodeMessages(msgs []domain.Message) (string, error) {
	entries := make([]messageJSON, len(msgs))
	for i, m := range msgs {
		entries[i] = messageJSON{Role: string(m.Role), Content: m.Content}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("%w: encoding messages: %w", domain.ErrStorageWrite, err)
	}
	return string(data), nil
}
