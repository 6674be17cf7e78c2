package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/cvescope/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driving"
	"github.com/custodia-labs/cvescope/internal/core/services"
)

const log4shellReport = "# CVE Analysis Report: CVE-2021-44228\n\n- **Severity**: CRITICAL\n\nJNDI lookup."

// mockAnalyzer returns a fixed analysis for CVE-2021-44228 and a
// not-found result for everything else.
type mockAnalyzer struct {
	err   error
	calls []string
}

func (m *mockAnalyzer) QueryAndAnalyze(_ context.Context, id string) (*domain.Analysis, error) {
	m.calls = append(m.calls, id)
	if m.err != nil {
		return nil, m.err
	}
	id = strings.ToUpper(id)
	if id != "CVE-2021-44228" {
		return &domain.Analysis{
			CVEID:  id,
			Report: "No information found for " + id + ".",
		}, nil
	}
	return &domain.Analysis{
		CVEID: id,
		Found: true,
		Info: &domain.VulnerabilityInfo{
			ID:         id,
			CVSSScores: []domain.CVSSScore{{Version: "3.1", BaseSeverity: "CRITICAL"}},
		},
		Report: log4shellReport,
	}, nil
}

// mockChatService echoes the message and remembers what it was sent.
type mockChatService struct {
	sessionID string
	err       error
	sent      []string
}

func (m *mockChatService) Send(_ context.Context, sessionID, text string) (string, string, error) {
	m.sent = append(m.sent, text)
	if m.err != nil {
		return sessionID, "", m.err
	}
	if sessionID == "" {
		sessionID = m.sessionID
	}
	return sessionID, "echo: " + text, nil
}

type mockSettingsService struct {
	settings      domain.AppSettings
	validateErr   error
	llmProvider   domain.AIProvider
	llmModel      string
	llmAPIKey     string
	registryCalls int
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llmProvider = provider
	m.llmModel = model
	m.llmAPIKey = apiKey
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetRegistry(baseURL, apiKey string) error {
	m.registryCalls++
	if baseURL == "" {
		baseURL = domain.DefaultRegistryURL
	}
	m.settings.Registry.BaseURL = baseURL
	m.settings.Registry.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetStorage(backend domain.StorageBackend, retentionDays int) error {
	if !backend.IsValid() {
		return domain.ErrUnsupportedType
	}
	m.settings.Storage.Backend = backend
	m.settings.Storage.RetentionDays = retentionDays
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.validateErr
}

// testServices holds the doubles installed by setupTestServices.
type testServices struct {
	analyzer *mockAnalyzer
	chat     *mockChatService
	settings *mockSettingsService
	sessions *memory.SessionStore
	reports  *memory.ReportStore
	history  driving.HistoryService
}

// setupTestServices installs test doubles and a history service over
// in-memory stores. The returned func restores the previous state.
func setupTestServices() (*testServices, func()) {
	origInit := initServices
	origAnalyzer, origChat, origHistory, origSettings := analyzer, chatService, historyService, settingsService

	sessions := memory.NewSessionStore()
	reports := memory.NewReportStore(sessions)
	ts := &testServices{
		analyzer: &mockAnalyzer{},
		chat:     &mockChatService{sessionID: "chat-session"},
		settings: newMockSettingsService(),
		sessions: sessions,
		reports:  reports,
		history:  services.NewHistoryService(sessions, reports),
	}

	initServices = nil
	analyzer = ts.analyzer
	chatService = ts.chat
	historyService = ts.history
	settingsService = ts.settings

	return ts, func() {
		initServices = origInit
		analyzer, chatService, historyService, settingsService = origAnalyzer, origChat, origHistory, origSettings
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag in the tree to its default so parsed
// values do not leak between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
