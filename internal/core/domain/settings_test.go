package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAIProvider_IsValid tests valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("gemini"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_Traits(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())

	assert.True(t, AIProviderOllama.IsLocal())
	assert.False(t, AIProviderOpenAI.IsLocal())

	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{name: "empty", settings: LLMSettings{}, expected: false},
		{name: "ollama without key", settings: LLMSettings{Provider: AIProviderOllama}, expected: true},
		{name: "openai without key", settings: LLMSettings{Provider: AIProviderOpenAI}, expected: false},
		{name: "openai with key", settings: LLMSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, expected: true},
		{name: "unknown provider", settings: LLMSettings{Provider: "x", APIKey: "k"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestStorageBackend(t *testing.T) {
	assert.True(t, StorageBackendJSON.IsValid())
	assert.True(t, StorageBackendSQLite.IsValid())
	assert.False(t, StorageBackend("redis").IsValid())
	assert.Len(t, AllStorageBackends(), 2)
	assert.Contains(t, StorageBackendSQLite.Description(), "SQLite")
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOllama, s.LLM.Provider)
	assert.Equal(t, "llama3.2", s.LLM.Model)
	assert.True(t, s.LLM.IsConfigured())
	assert.Equal(t, DefaultRegistryURL, s.Registry.BaseURL)
	assert.Equal(t, DefaultRegistryTimeout, s.Registry.Timeout)
	assert.Equal(t, StorageBackendJSON, s.Storage.Backend)
	assert.Equal(t, 30, s.Storage.RetentionDays)
}
