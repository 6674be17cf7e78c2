package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockRegistry implements driven.VulnerabilityRegistry for testing.
type mockRegistry struct {
	raw   *domain.RawVulnerability
	err   error
	calls []string
}

func (m *mockRegistry) Fetch(_ context.Context, id string) (*domain.RawVulnerability, error) {
	m.calls = append(m.calls, id)
	if m.err != nil {
		return nil, m.err
	}
	return m.raw, nil
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []domain.GenerationRequest
}

func (m *mockLLM) Complete(_ context.Context, req domain.GenerationRequest, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string { return "mock-model" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}

// mockMetrics implements driven.MetricsRecorder for testing.
type mockMetrics struct {
	generations []bool
	saved       int
}

func (m *mockMetrics) RegistryRequest(string, time.Duration) {}

func (m *mockMetrics) Generation(_ string, ok bool, _ time.Duration) {
	m.generations = append(m.generations, ok)
}

func (m *mockMetrics) ReportSaved() { m.saved++ }

// mockConfigStore implements driven.ConfigStore for testing.
type mockConfigStore struct {
	mu     sync.Mutex
	data   map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	v, _ := m.Get(key)
	i, _ := v.(int)
	return i
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	v, _ := m.Get(key)
	s, _ := v.([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }

func (m *mockConfigStore) Load() error { return nil }

func (m *mockConfigStore) Path() string { return "mock://config.toml" }

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	err      error
	received *domain.LLMSettings
}

func (m *mockAIValidator) ValidateLLM(s *domain.LLMSettings) error {
	m.received = s
	return m.err
}

// --- Fixtures ---

func ptr(f float64) *float64 { return &f }

// log4Shell returns a registry record shaped like CVE-2021-44228.
func log4Shell() *domain.RawVulnerability {
	return &domain.RawVulnerability{CVE: domain.RawCVE{
		ID:           "CVE-2021-44228",
		Published:    "2021-12-10T10:15:09.143",
		LastModified: "2023-11-07T03:39:36.747",
		VulnStatus:   "Analyzed",
		Descriptions: []domain.RawLangString{
			{Lang: "es", Value: "Apache Log4j2 ..."},
			{Lang: "en", Value: "Apache Log4j2 JNDI features do not protect against attacker controlled LDAP."},
		},
		Metrics: domain.RawMetrics{
			CVSSMetricV31: []domain.RawCVSSMetric{{
				CVSSData: domain.RawCVSSData{
					Version:      "3.1",
					VectorString: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H",
					BaseScore:    ptr(10.0),
					BaseSeverity: "CRITICAL",
				},
			}},
			CVSSMetricV2: []domain.RawCVSSMetric{{
				CVSSData: domain.RawCVSSData{
					Version:      "2.0",
					VectorString: "AV:N/AC:M/Au:N/C:C/I:C/A:C",
					BaseScore:    ptr(9.3),
				},
			}},
		},
		Weaknesses: []domain.RawWeakness{
			{Description: []domain.RawLangString{{Lang: "en", Value: "CWE-502"}, {Lang: "en", Value: "CWE-400"}}},
			{Description: []domain.RawLangString{{Lang: "en", Value: "CWE-20"}, {Lang: "en", Value: "CWE-502"}}},
		},
		Configurations: []domain.RawConfiguration{{
			Nodes: []domain.RawConfigNode{{
				CPEMatch: []domain.RawCPEMatch{
					{Vulnerable: true, Criteria: "cpe:2.3:a:apache:log4j:*:*:*:*:*:*:*:*"},
					{Vulnerable: false, Criteria: "cpe:2.3:o:debian:debian_linux:9.0:*:*:*:*:*:*:*"},
				},
			}},
		}},
		References: []domain.RawReference{
			{URL: "https://logging.apache.org/log4j/2.x/security.html"},
			{URL: ""},
			{URL: "https://nvd.nist.gov/vuln/detail/CVE-2021-44228"},
		},
	}}
}
