package jsonfile

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionRepository = (*SessionStore)(nil)

type sessionDocument struct {
	Version          string         `json:"version"`
	CreatedAt        time.Time      `json:"created_at"`
	LastUpdated      time.Time      `json:"last_updated"`
	CurrentSessionID *string        `json:"current_session_id"`
	Sessions         []sessionEntry `json:"sessions"`
}

type sessionEntry struct {
	SessionID    string         `json:"session_id"`
	CreatedAt    time.Time      `json:"created_at"`
	LastUpdated  time.Time      `json:"last_updated"`
	Messages     []messageEntry `json:"messages"`
	MessageCount int            `json:"message_count"`
	CVEQueries   []string       `json:"cve_queries"`
}

type messageEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionStore keeps sessions in chat_history.json.
type SessionStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewSessionStore creates a store at <dataDir>/chat_history.json.
// The file is created on first write.
func NewSessionStore(dataDir string) *SessionStore {
	return &SessionStore{
		path: filepath.Join(dataDir, SessionsFile),
		now:  time.Now,
	}
}

// SetClock overrides the time source.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Path returns the document path.
func (s *SessionStore) Path() string {
	return s.path
}

// CreateSession appends an empty session and makes it current.
func (s *SessionStore) CreateSession(_ context.Context) (string, error) {
	var id string
	err := s.mutate(func(doc *sessionDocument, now time.Time) {
		id = doc.create(now)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// AppendMessages replaces the transcript of id. An unknown id gets a new
// session; the returned id is authoritative.
func (s *SessionStore) AppendMessages(_ context.Context, id string, msgs []domain.Message) (string, error) {
	filtered := domain.FilterPersistable(msgs)
	err := s.mutate(func(doc *sessionDocument, now time.Time) {
		entry := doc.find(id)
		if entry == nil {
			id = doc.create(now)
			entry = doc.find(id)
		}
		entry.Messages = toEntries(filtered)
		entry.MessageCount = len(filtered)
		if now.After(entry.LastUpdated) {
			entry.LastUpdated = now
		}
	})
	if err != nil {
		return id, err
	}
	return id, nil
}

// UpdateMessages applies fn to the transcript of id inside one
// read-modify-write cycle.
func (s *SessionStore) UpdateMessages(
	_ context.Context,
	id string,
	fn func([]domain.Message) []domain.Message,
) (string, error) {
	err := s.mutate(func(doc *sessionDocument, now time.Time) {
		entry := doc.resolve(id)
		if entry == nil {
			entry = doc.find(doc.create(now))
		}
		id = entry.SessionID

		msgs := domain.FilterPersistable(fn(fromEntries(entry.Messages)))
		entry.Messages = toEntries(msgs)
		entry.MessageCount = len(msgs)
		if now.After(entry.LastUpdated) {
			entry.LastUpdated = now
		}
	})
	return id, err
}

// LoadMessages returns the transcript for id. An empty id resolves the
// current session, then the most recently updated one.
func (s *SessionStore) LoadMessages(_ context.Context, id string) (string, []domain.Message, error) {
	entry := s.view().resolve(id)
	if entry == nil {
		return "", []domain.Message{}, nil
	}
	return entry.SessionID, fromEntries(entry.Messages), nil
}

// GetSession returns one session.
func (s *SessionStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	doc := s.view()
	entry := doc.find(id)
	if entry == nil {
		return nil, domain.ErrNotFound
	}
	session := entry.toDomain()
	return &session, nil
}

// ListSessions returns summaries, most recently updated first.
func (s *SessionStore) ListSessions(_ context.Context) ([]domain.SessionSummary, error) {
	doc := s.view()
	result := make([]domain.SessionSummary, 0, len(doc.Sessions))
	for i := range doc.Sessions {
		session := doc.Sessions[i].toDomain()
		result = append(result, session.Summary())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastUpdated.After(result[j].LastUpdated)
	})
	return result, nil
}

// RecordCVEQuery adds cveID to the session's query set. Unknown sessions are ignored.
func (s *SessionStore) RecordCVEQuery(_ context.Context, sessionID, cveID string) error {
	return s.mutate(func(doc *sessionDocument, now time.Time) {
		entry := doc.find(sessionID)
		if entry == nil {
			return
		}
		session := entry.toDomain()
		if session.AddCVEQuery(cveID) {
			entry.CVEQueries = session.CVEQueries
			if now.After(entry.LastUpdated) {
				entry.LastUpdated = now
			}
		}
	})
}

// PruneOlderThan removes sessions not updated within days.
func (s *SessionStore) PruneOlderThan(_ context.Context, days int) (int, error) {
	removed := 0
	err := s.mutate(func(doc *sessionDocument, now time.Time) {
		cutoff := now.AddDate(0, 0, -days)
		kept := doc.Sessions[:0]
		for _, entry := range doc.Sessions {
			if entry.LastUpdated.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, entry)
		}
		doc.Sessions = kept
		if doc.CurrentSessionID != nil && doc.find(*doc.CurrentSessionID) == nil {
			doc.CurrentSessionID = nil
		}
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// mutate runs fn on the current document and writes it back. A document
// that exists but cannot be read is never overwritten.
func (s *SessionStore) mutate(fn func(doc *sessionDocument, now time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	doc := newSessionDocument(now)
	if _, err := readDocument(s.path, doc); err != nil {
		return err
	}

	fn(doc, now)
	doc.LastUpdated = now
	return writeDocument(s.path, doc)
}

// view reads the document, degrading to an empty one on failure.
func (s *SessionStore) view() *sessionDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := newSessionDocument(s.now())
	if _, err := readDocument(s.path, doc); err != nil {
		logger.Warn("could not read %s: %v", filepath.Base(s.path), err)
		return newSessionDocument(s.now())
	}
	return doc
}

func newSessionDocument(now time.Time) *sessionDocument {
	return &sessionDocument{
		Version:     documentVersion,
		CreatedAt:   now,
		LastUpdated: now,
		Sessions:    []sessionEntry{},
	}
}

func (d *sessionDocument) create(now time.Time) string {
	id := uuid.New().String()
	d.Sessions = append(d.Sessions, sessionEntry{
		SessionID:   id,
		CreatedAt:   now,
		LastUpdated: now,
		Messages:    []messageEntry{},
		CVEQueries:  []string{},
	})
	d.CurrentSessionID = &id
	return id
}

func (d *sessionDocument) find(id string) *sessionEntry {
	if id == "" {
		return nil
	}
	for i := range d.Sessions {
		if d.Sessions[i].SessionID == id {
			return &d.Sessions[i]
		}
	}
	return nil
}

// resolve finds id, mapping an empty id to the current session and then
// the most recently updated one.
func (d *sessionDocument) resolve(id string) *sessionEntry {
	if id == "" && d.CurrentSessionID != nil {
		id = *d.CurrentSessionID
	}
	entry := d.find(id)
	if entry == nil && id == "" {
		entry = d.latest()
	}
	return entry
}

func (d *sessionDocument) latest() *sessionEntry {
	var latest *sessionEntry
	for i := range d.Sessions {
		if latest == nil || d.Sessions[i].LastUpdated.After(latest.LastUpdated) {
			latest = &d.Sessions[i]
		}
	}
	return latest
}

func (e *sessionEntry) toDomain() domain.Session {
	queries := append([]string{}, e.CVEQueries...)
	return domain.Session{
		ID:          e.SessionID,
		CreatedAt:   e.CreatedAt,
		LastUpdated: e.LastUpdated,
		Messages:    fromEntries(e.Messages),
		CVEQueries:  queries,
	}
}

func toEntries(msgs []domain.Message) []messageEntry {
	out := make([]messageEntry, len(msgs))
	for i, m := range msgs {
		out[i] = messageEntry{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func fromEntries(entries []messageEntry) []domain.Message {
	out := make([]domain.Message, len(entries))
	for i, e := range entries {
		out[i] = domain.Message{Role: domain.Role(e.Role), Content: e.Content}
	}
	return out
}
