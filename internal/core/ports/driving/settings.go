package driving

import "github.com/custodia-labs/cvescope/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetRegistry configures the registry endpoint and API key.
	SetRegistry(baseURL, apiKey string) error

	// SetStorage configures the storage backend and retention.
	SetStorage(backend domain.StorageBackend, retentionDays int) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
