package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/core/ports/driving"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService holds free-form conversations backed by the session store.
type ChatService struct {
	sessions    driven.SessionRepository
	llm         driven.LLMService
	promptStore driven.PromptStore
	metrics     driven.MetricsRecorder
}

// NewChatService creates a new chat service.
func NewChatService(sessions driven.SessionRepository, llm driven.LLMService) *ChatService {
	return &ChatService{
		sessions: sessions,
		llm:      llm,
	}
}

// SetPromptStore sets the prompt store for the system prompt.
func (s *ChatService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// SetMetrics sets the recorder for generation timings.
func (s *ChatService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// Send appends text to the transcript, generates a reply and stores both.
// The prompt uses a snapshot of the transcript; the turn is appended to the
// stored transcript so concurrent turns are kept. Nothing is stored if
// generation fails.
func (s *ChatService) Send(ctx context.Context, sessionID, text string) (string, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return sessionID, "", fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return sessionID, "", domain.ErrLLMUnavailable
	}

	id, history, err := s.sessions.LoadMessages(ctx, sessionID)
	if err != nil {
		return sessionID, "", fmt.Errorf("load session: %w", err)
	}
	if id == "" {
		id = sessionID
	}

	msgs := append(history, domain.Message{Role: domain.RoleUser, Content: text})
	req := domain.NewTranscriptRequest(msgs).WithSystem(loadSystemPrompt(s.promptStore))

	start := time.Now()
	reply, err := s.llm.Complete(ctx, req, driven.DefaultGenerateOptions())
	if s.metrics != nil {
		s.metrics.Generation(s.llm.ModelName(), err == nil, time.Since(start))
	}
	if err != nil {
		return id, "", fmt.Errorf("generate reply: %w", err)
	}
	reply = strings.TrimSpace(reply)

	turn := []domain.Message{
		{Role: domain.RoleUser, Content: text},
		{Role: domain.RoleAssistant, Content: reply},
	}
	id, err = s.sessions.UpdateMessages(ctx, id, func(stored []domain.Message) []domain.Message {
		return append(stored, turn...)
	})
	if err != nil {
		return id, reply, fmt.Errorf("save transcript: %w", err)
	}

	return id, reply, nil
}
