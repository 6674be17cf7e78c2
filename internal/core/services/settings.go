package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyRegistryBaseURL  = "registry.base_url"
	keyRegistryAPIKey   = "registry.api_key"
	keyRegistryTimeout  = "registry.timeout_seconds"
	keyStorageBackend   = "storage.backend"
	keyStorageDataDir   = "storage.data_dir"
	keyStorageRetention = "storage.retention_days"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvRegistryAPIKey = "NVD_API_KEY"
	EnvLLMAPIKey      = "CVESCOPE_LLM_API_KEY"
	EnvDataDir        = "CVESCOPE_DATA_DIR"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      func(string) string { return "" },
	}
}

// SetEnv sets the lookup used for environment overrides, usually os.Getenv.
func (s *SettingsService) SetEnv(getenv func(string) string) {
	if getenv != nil {
		s.getenv = getenv
	}
}

// Get retrieves current application settings.
// Environment variables take precedence over the config file.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.withEnv(EnvLLMAPIKey, s.configStore.GetString(keyLLMAPIKey)),
		},
		Registry: domain.RegistrySettings{
			BaseURL: s.getString(keyRegistryBaseURL, defaults.Registry.BaseURL),
			APIKey:  s.withEnv(EnvRegistryAPIKey, s.configStore.GetString(keyRegistryAPIKey)),
			Timeout: s.getSeconds(keyRegistryTimeout, defaults.Registry.Timeout),
		},
		Storage: domain.StorageSettings{
			Backend:       s.getBackend(defaults.Storage.Backend),
			DataDir:       s.withEnv(EnvDataDir, s.configStore.GetString(keyStorageDataDir)),
			RetentionDays: s.getInt(keyStorageRetention, defaults.Storage.RetentionDays),
		},
	}

	return settings, nil
}

// Save persists application settings. Empty API keys are not written so
// keys supplied through the environment never land in the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if s.persistable(EnvLLMAPIKey, settings.LLM.APIKey) {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	if err := s.configStore.Set(keyRegistryBaseURL, settings.Registry.BaseURL); err != nil {
		return fmt.Errorf("save registry base_url: %w", err)
	}
	if s.persistable(EnvRegistryAPIKey, settings.Registry.APIKey) {
		if err := s.configStore.Set(keyRegistryAPIKey, settings.Registry.APIKey); err != nil {
			return fmt.Errorf("save registry api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyRegistryTimeout, int(settings.Registry.Timeout/time.Second)); err != nil {
		return fmt.Errorf("save registry timeout: %w", err)
	}

	if err := s.configStore.Set(keyStorageBackend, settings.Storage.Backend.String()); err != nil {
		return fmt.Errorf("save storage backend: %w", err)
	}
	if err := s.configStore.Set(keyStorageRetention, settings.Storage.RetentionDays); err != nil {
		return fmt.Errorf("save storage retention: %w", err)
	}

	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetRegistry configures the registry endpoint and API key.
// An empty baseURL restores the default endpoint; an empty apiKey keeps the current one.
func (s *SettingsService) SetRegistry(baseURL, apiKey string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if baseURL == "" {
		baseURL = domain.DefaultRegistryURL
	}
	settings.Registry.BaseURL = baseURL
	settings.Registry.APIKey = apiKey

	return s.Save(settings)
}

// SetStorage configures the storage backend and retention.
func (s *SettingsService) SetStorage(backend domain.StorageBackend, retentionDays int) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, backend)
	}
	if retentionDays <= 0 {
		return fmt.Errorf("%w: retention days must be positive", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Storage.Backend = backend
	settings.Storage.RetentionDays = retentionDays

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) withEnv(name, fallback string) string {
	if v := s.getenv(name); v != "" {
		return v
	}
	return fallback
}

func (s *SettingsService) persistable(env, key string) bool {
	return key != "" && key != s.getenv(env)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
