package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsPersistable returns true for roles that are kept in session history.
// System prompts are never stored.
func (r Role) IsPersistable() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single transcript entry.
type Message struct {
	Role    Role
	Content string
}

// FilterPersistable returns the user and assistant messages of msgs in order.
func FilterPersistable(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role.IsPersistable() {
			out = append(out, m)
		}
	}
	return out
}

// Session is one conversation.
type Session struct {
	// ID is generated at creation and never changes.
	ID string

	CreatedAt time.Time

	// LastUpdated never moves backwards.
	LastUpdated time.Time

	Messages []Message

	// CVEQueries holds uppercase identifiers in insertion order, without duplicates.
	CVEQueries []string
}

// MessageCount returns the number of stored messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// AddCVEQuery records id (uppercased) once. Returns true if it was added.
func (s *Session) AddCVEQuery(id string) bool {
	id = strings.ToUpper(strings.TrimSpace(id))
	for _, q := range s.CVEQueries {
		if q == id {
			return false
		}
	}
	s.CVEQueries = append(s.CVEQueries, id)
	return true
}

// Touch advances LastUpdated to now, never backwards.
func (s *Session) Touch(now time.Time) {
	if now.After(s.LastUpdated) {
		s.LastUpdated = now
	}
}

// Preview limits.
const (
	SessionPreviewLength = 50
	ReportPreviewLength  = 100
)

// Preview returns a short label for listings: the first user message
// truncated to 50 characters, a message count, or "New session".
func (s *Session) Preview() string {
	if len(s.Messages) == 0 {
		return "New session"
	}
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return Truncate(m.Content, SessionPreviewLength)
		}
	}
	return fmt.Sprintf("%d messages", len(s.Messages))
}

// Summary builds the listing view of the session.
func (s *Session) Summary() SessionSummary {
	queries := make([]string, len(s.CVEQueries))
	copy(queries, s.CVEQueries)
	return SessionSummary{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		LastUpdated:  s.LastUpdated,
		MessageCount: s.MessageCount(),
		CVEQueries:   queries,
		Preview:      s.Preview(),
	}
}

// SessionSummary is the listing view of a Session.
type SessionSummary struct {
	ID           string
	CreatedAt    time.Time
	LastUpdated  time.Time
	MessageCount int
	CVEQueries   []string
	Preview      string
}

// Truncate cuts s to n characters and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
