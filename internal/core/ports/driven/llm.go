package driven

import (
	"context"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

// LLMService provides text generation for vulnerability analysis and chat.
// This is an optional service - when nil, reports embed a fallback analysis.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT-4o family)
//   - Anthropic (Claude)
type LLMService interface {
	// Complete generates a response for the request. Implementations
	// resolve the request with req.Conversation(), so a system prompt
	// is always sent first.
	Complete(ctx context.Context, req domain.GenerationRequest, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// DefaultGenerateOptions mirrors the settings used for report analysis.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		MaxTokens:   2000,
		Temperature: 0.7,
	}
}
