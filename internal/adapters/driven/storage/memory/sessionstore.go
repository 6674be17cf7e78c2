package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionRepository = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	current  string
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// SetClock overrides the time source.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CreateSession creates an empty session and makes it current.
func (s *SessionStore) CreateSession(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(), nil
}

func (s *SessionStore) create() string {
	now := s.now()
	id := uuid.New().String()
	s.sessions[id] = &domain.Session{
		ID:          id,
		CreatedAt:   now,
		LastUpdated: now,
		Messages:    []domain.Message{},
		CVEQueries:  []string{},
	}
	s.current = id
	return id
}

// AppendMessages replaces the session transcript, creating a session for unknown ids.
func (s *SessionStore) AppendMessages(_ context.Context, id string, msgs []domain.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		id = s.create()
		session = s.sessions[id]
	}
	session.Messages = domain.FilterPersistable(msgs)
	session.Touch(s.now())
	return id, nil
}

// UpdateMessages applies fn to the transcript of id under the store lock.
func (s *SessionStore) UpdateMessages(
	_ context.Context,
	id string,
	fn func([]domain.Message) []domain.Message,
) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.resolve(id)
	if session == nil {
		session = s.sessions[s.create()]
	}
	msgs := append([]domain.Message(nil), session.Messages...)
	session.Messages = domain.FilterPersistable(fn(msgs))
	session.Touch(s.now())
	return session.ID, nil
}

// LoadMessages returns the transcript of id, the current session, or the latest one.
func (s *SessionStore) LoadMessages(_ context.Context, id string) (string, []domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.resolve(id)
	if session == nil {
		return "", []domain.Message{}, nil
	}
	msgs := make([]domain.Message, len(session.Messages))
	copy(msgs, session.Messages)
	return session.ID, msgs, nil
}

// resolve must be called with mu held.
func (s *SessionStore) resolve(id string) *domain.Session {
	if id == "" {
		id = s.current
	}
	if id == "" {
		var latest *domain.Session
		for _, sess := range s.sessions {
			if latest == nil || sess.LastUpdated.After(latest.LastUpdated) {
				latest = sess
			}
		}
		return latest
	}
	return s.sessions[id]
}

// GetSession returns a copy of a session.
func (s *SessionStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *session
	out.Messages = append([]domain.Message(nil), session.Messages...)
	out.CVEQueries = append([]string(nil), session.CVEQueries...)
	return &out, nil
}

// ListSessions returns summaries, most recently updated first.
func (s *SessionStore) ListSessions(_ context.Context) ([]domain.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, session.Summary())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastUpdated.After(result[j].LastUpdated)
	})
	return result, nil
}

// RecordCVEQuery adds cveID to the session's query set.
func (s *SessionStore) RecordCVEQuery(_ context.Context, sessionID, cveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if session.AddCVEQuery(cveID) {
		session.Touch(s.now())
	}
	return nil
}

// PruneOlderThan removes sessions not updated within days.
func (s *SessionStore) PruneOlderThan(_ context.Context, days int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().AddDate(0, 0, -days)
	removed := 0
	for id, session := range s.sessions {
		if session.LastUpdated.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if _, ok := s.sessions[s.current]; !ok {
		s.current = ""
	}
	return removed, nil
}
