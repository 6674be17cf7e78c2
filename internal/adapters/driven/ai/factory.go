// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/cvescope/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/cvescope/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/cvescope/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint is appended to configuration errors.
const fixHint = "Run 'cvescope settings llm' to fix"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	LLMService driven.LLMService
	Warnings   []string // Non-fatal issues that caused fallback.
	FellBack   bool     // True if reports will carry the fallback analysis.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates and validates the configured LLM service. Failures never
// abort: they are recorded as warnings and the result has no service.
func Init(settings *domain.LLMSettings) *InitResult {
	result := &InitResult{}
	if settings == nil || !settings.IsConfigured() {
		result.FellBack = true
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("LLM provider not configured. %s", fixHint))
		return result
	}

	svc, err := CreateAndValidateLLMService(settings)
	if err != nil {
		result.FellBack = true
		result.Warnings = append(result.Warnings, err.Error())
		return result
	}
	result.LLMService = svc
	return result
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}

	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, fixHint)
	}

	return svc, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
// This is intended for use by 'settings llm' to validate credentials on configuration.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
