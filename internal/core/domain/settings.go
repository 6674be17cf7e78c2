package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend selects the repository implementation.
type StorageBackend string

// Available storage backends.
const (
	// StorageBackendJSON keeps sessions and reports in two JSON documents.
	StorageBackendJSON StorageBackend = "json"

	// StorageBackendSQLite keeps sessions and reports in an embedded database.
	StorageBackendSQLite StorageBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageBackendJSON || b == StorageBackendSQLite
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case StorageBackendJSON:
		return "JSON files (chat_history.json, cve_reports.json)"
	case StorageBackendSQLite:
		return "SQLite database (cvescope.db)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RegistrySettings configures the vulnerability registry client.
type RegistrySettings struct {
	// BaseURL is the CVE API endpoint.
	BaseURL string

	// APIKey is an optional NVD API key. It raises the rate limit.
	APIKey string

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// StorageSettings configures where history is kept.
type StorageSettings struct {
	Backend StorageBackend

	// DataDir holds the history files.
	DataDir string

	// RetentionDays is the default age cut-off for prune.
	RetentionDays int
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM      LLMSettings
	Registry RegistrySettings
	Storage  StorageSettings
}

// Default values for AppSettings.
const (
	DefaultRegistryURL     = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	DefaultRegistryTimeout = 30 * time.Second
	DefaultRetentionDays   = 30
)

// DefaultAppSettings returns settings with sensible defaults.
// The LLM defaults to a local Ollama instance, which needs no key.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
		Registry: RegistrySettings{
			BaseURL: DefaultRegistryURL,
			Timeout: DefaultRegistryTimeout,
		},
		Storage: StorageSettings{
			Backend:       StorageBackendJSON,
			RetentionDays: DefaultRetentionDays,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllStorageBackends returns all available storage backends.
func AllStorageBackends() []StorageBackend {
	return []StorageBackend{StorageBackendJSON, StorageBackendSQLite}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
