package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
)

func TestAnalyzer_QueryAndAnalyze_Found(t *testing.T) {
	registry := &mockRegistry{raw: log4Shell()}
	llm := &mockLLM{reply: "Critical RCE."}
	metrics := &mockMetrics{}
	analyzer := NewAnalyzer(registry, llm)
	analyzer.SetMetrics(metrics)

	analysis, err := analyzer.QueryAndAnalyze(context.Background(), " cve-2021-44228 ")

	require.NoError(t, err)
	assert.True(t, analysis.Found)
	assert.Equal(t, "CVE-2021-44228", analysis.CVEID)
	require.NotNil(t, analysis.Info)
	assert.Equal(t, "CRITICAL", analysis.Info.Severity())
	assert.Contains(t, analysis.Report, "Critical RCE.")
	assert.Equal(t, []string{"CVE-2021-44228"}, registry.calls)

	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	assert.Equal(t, domain.SinglePrompt, req.Kind)
	assert.Equal(t, domain.DefaultSystemPrompt, req.SystemPrompt())
	assert.Equal(t, []bool{true}, metrics.generations)
}

func TestAnalyzer_QueryAndAnalyze_InvalidID(t *testing.T) {
	registry := &mockRegistry{raw: log4Shell()}
	analyzer := NewAnalyzer(registry, &mockLLM{})

	_, err := analyzer.QueryAndAnalyze(context.Background(), "log4shell")

	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
	assert.Empty(t, registry.calls)
}

func TestAnalyzer_QueryAndAnalyze_NotFound(t *testing.T) {
	llm := &mockLLM{reply: "unused"}
	analyzer := NewAnalyzer(&mockRegistry{err: domain.ErrNotFound}, llm)

	analysis, err := analyzer.QueryAndAnalyze(context.Background(), "CVE-2099-99999")

	require.NoError(t, err)
	assert.False(t, analysis.Found)
	assert.Nil(t, analysis.Info)
	assert.Equal(t, NotFoundMessage("CVE-2099-99999"), analysis.Report)
	assert.Empty(t, llm.requests)
}

func TestAnalyzer_QueryAndAnalyze_NetworkError(t *testing.T) {
	netErr := &domain.NetworkError{Attempts: 3, Err: errors.New("timeout")}
	analyzer := NewAnalyzer(&mockRegistry{err: netErr}, &mockLLM{})

	_, err := analyzer.QueryAndAnalyze(context.Background(), "CVE-2021-44228")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.True(t, domain.IsNetworkError(err))
}

func TestAnalyzer_QueryAndAnalyze_LLMFailureStillReports(t *testing.T) {
	metrics := &mockMetrics{}
	analyzer := NewAnalyzer(&mockRegistry{raw: log4Shell()}, &mockLLM{err: errors.New("model not loaded")})
	analyzer.SetMetrics(metrics)

	analysis, err := analyzer.QueryAndAnalyze(context.Background(), "CVE-2021-44228")

	require.NoError(t, err)
	assert.True(t, analysis.Found)
	assert.Contains(t, analysis.Report, "Analysis unavailable: model not loaded")
	assert.Equal(t, []bool{false}, metrics.generations)
}

func TestAnalyzer_QueryAndAnalyze_NoLLM(t *testing.T) {
	analyzer := NewAnalyzer(&mockRegistry{raw: log4Shell()}, nil)

	analysis, err := analyzer.QueryAndAnalyze(context.Background(), "CVE-2021-44228")

	require.NoError(t, err)
	assert.Contains(t, analysis.Report, domain.ErrLLMUnavailable.Error())
}

func TestAnalyzer_QueryAndAnalyze_NoRegistry(t *testing.T) {
	_, err := NewAnalyzer(nil, nil).QueryAndAnalyze(context.Background(), "CVE-2021-44228")

	assert.Error(t, err)
}

func TestAnalyzer_UsesCustomSystemPrompt(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	analyzer := NewAnalyzer(&mockRegistry{raw: log4Shell()}, llm)
	analyzer.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptSystem: "  You are a SOC analyst.  ",
	}})

	_, err := analyzer.QueryAndAnalyze(context.Background(), "CVE-2021-44228")

	require.NoError(t, err)
	require.Len(t, llm.requests, 1)
	assert.Equal(t, "You are a SOC analyst.", llm.requests[0].SystemPrompt())
}
