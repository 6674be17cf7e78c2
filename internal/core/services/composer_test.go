package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
)

func TestComposer_BuildPrompt_Default(t *testing.T) {
	prompt := NewComposer().BuildPrompt(Extract(*log4Shell()))

	assert.True(t, strings.HasPrefix(prompt, "Analyse the following CVE"))
	assert.Contains(t, prompt, "CVE ID: CVE-2021-44228")
	assert.Contains(t, prompt, "Severity: CRITICAL")
	assert.Contains(t, prompt, "CVSS scores: v3.1: 10.0, v2.0: 9.3")
	assert.Contains(t, prompt, "CWE: CWE-502, CWE-400, CWE-20")
	assert.NotContains(t, prompt, "%s")
}

func TestComposer_BuildPrompt_CustomTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		prefix   string
	}{
		{"with placeholder", "Short report please.\n%s", "Short report please.\nCVE ID:"},
		{"without placeholder", "Short report please.", "Short report please.\n\nCVE ID:"},
		{"blank falls back", "   ", "Analyse the following CVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposer()
			c.SetPromptStore(&mockPromptStore{prompts: map[string]string{driven.PromptCVEAnalysis: tt.template}})

			prompt := c.BuildPrompt(Extract(*log4Shell()))

			assert.True(t, strings.HasPrefix(prompt, tt.prefix), prompt)
		})
	}
}

func TestComposer_BuildPrompt_NoScoresNoCWE(t *testing.T) {
	prompt := NewComposer().BuildPrompt(Extract(domain.RawVulnerability{}))

	assert.Contains(t, prompt, "CVSS scores: N/A")
	assert.Contains(t, prompt, "CWE: none")
}

func TestComposer_Compose_CallsGenerateOnce(t *testing.T) {
	calls := 0
	generate := func(_ context.Context, prompt string) (string, error) {
		calls++
		assert.Contains(t, prompt, "CVE-2021-44228")
		return "  Remote code execution via JNDI lookups.  ", nil
	}

	report := NewComposer().Compose(context.Background(), Extract(*log4Shell()), generate)

	assert.Equal(t, 1, calls)
	assert.Contains(t, report, "## Analysis\nRemote code execution via JNDI lookups.\n")
}

func TestComposer_Compose_GenerateError(t *testing.T) {
	generate := func(context.Context, string) (string, error) {
		return "", errors.New("connection refused")
	}

	report := NewComposer().Compose(context.Background(), Extract(*log4Shell()), generate)

	assert.Contains(t, report, "Analysis unavailable: connection refused")
	assert.Contains(t, report, "# CVE Analysis Report")
}

func TestComposer_Compose_NilGenerator(t *testing.T) {
	report := NewComposer().Compose(context.Background(), Extract(*log4Shell()), nil)

	assert.Contains(t, report, FallbackAnalysis(domain.ErrLLMUnavailable))
}

func TestRender_Log4Shell(t *testing.T) {
	report := Render(Extract(*log4Shell()), "analysis text")

	assert.True(t, strings.HasPrefix(report, "# CVE Analysis Report\n\n## Overview\n"))
	assert.Contains(t, report, "- **CVE ID**: CVE-2021-44228\n")
	assert.Contains(t, report, "- **Severity**: CRITICAL\n")
	assert.Contains(t, report, "- **Published**: 2021-12-10\n")
	assert.Contains(t, report, "- **Last Modified**: 2023-11-07\n")
	assert.Contains(t, report, "- **Status**: Analyzed\n")
	assert.Contains(t, report, "- **CVSS v3.1**: 10.0/10.0 (CRITICAL)\n")
	assert.Contains(t, report, "- **CVSS v2.0**: 9.3/10.0 (HIGH)\n")
	assert.Contains(t, report, "## CWE\n- CWE-502\n- CWE-400\n- CWE-20\n")
	assert.Contains(t, report, "## References\n1. https://logging.apache.org/log4j/2.x/security.html\n")
	assert.NotContains(t, report, "more\n")
}

func TestRender_OmitsEmptySections(t *testing.T) {
	report := Render(Extract(domain.RawVulnerability{}), "x")

	assert.NotContains(t, report, "## CWE")
	assert.NotContains(t, report, "## References")
	assert.Contains(t, report, "## CVSS Scores\n\n## Description\nN/A\n")
}

func TestRender_TruncatesReferences(t *testing.T) {
	info := Extract(domain.RawVulnerability{})
	for i := 0; i < 8; i++ {
		info.References = append(info.References, fmt.Sprintf("https://example.com/%d", i))
	}

	report := Render(info, "x")

	assert.Contains(t, report, "5. https://example.com/4\n")
	assert.NotContains(t, report, "https://example.com/5")
	assert.Contains(t, report, "... 3 more\n")
}
