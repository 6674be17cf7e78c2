package driving

import "context"

// ChatService conducts free-form security conversations.
type ChatService interface {
	// Send appends text to the session transcript, generates a reply and
	// stores both. An empty sessionID continues the current session.
	// Returns the authoritative session id and the reply.
	Send(ctx context.Context, sessionID, text string) (string, string, error)
}
