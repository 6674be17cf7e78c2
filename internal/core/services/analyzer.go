package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/core/ports/driving"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// Ensure Analyzer implements the interface.
var _ driving.Analyzer = (*Analyzer)(nil)

// Analyzer runs registry fetch, extraction and report composition.
// It has no storage side effects.
type Analyzer struct {
	registry    driven.VulnerabilityRegistry
	llm         driven.LLMService
	composer    *Composer
	promptStore driven.PromptStore
	metrics     driven.MetricsRecorder
}

// NewAnalyzer creates an analyzer. llm may be nil, in which case reports
// carry a fallback analysis.
func NewAnalyzer(registry driven.VulnerabilityRegistry, llm driven.LLMService) *Analyzer {
	return &Analyzer{
		registry: registry,
		llm:      llm,
		composer: NewComposer(),
	}
}

// SetPromptStore sets the prompt store used for the analysis and system prompts.
func (a *Analyzer) SetPromptStore(store driven.PromptStore) {
	a.promptStore = store
	a.composer.SetPromptStore(store)
}

// SetMetrics sets the recorder for generation timings.
func (a *Analyzer) SetMetrics(m driven.MetricsRecorder) {
	a.metrics = m
}

// NotFoundMessage is the report text for identifiers the registry does not know.
func NotFoundMessage(id string) string {
	return fmt.Sprintf("CVE %s not found, check that the identifier is correct", id)
}

// QueryAndAnalyze fetches id, extracts it and composes the report.
func (a *Analyzer) QueryAndAnalyze(ctx context.Context, id string) (*domain.Analysis, error) {
	if a.registry == nil {
		return nil, errors.New("vulnerability registry not configured")
	}

	cveID, err := domain.NormalizeCVEID(id)
	if err != nil {
		return nil, err
	}

	logger.Section("Query " + cveID)
	raw, err := a.registry.Fetch(ctx, cveID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Info("%s not found in registry", cveID)
		return &domain.Analysis{CVEID: cveID, Report: NotFoundMessage(cveID)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", cveID, err)
	}

	info := Extract(*raw)
	logger.Debug("extracted %s: severity=%s cvss=%d cwe=%d refs=%d",
		info.ID, info.Severity(), len(info.CVSSScores), len(info.CWEIDs), len(info.References))

	var generate GenerateFunc
	if a.llm != nil {
		generate = a.generate
	}
	report := a.composer.Compose(ctx, info, generate)

	return &domain.Analysis{
		CVEID:  cveID,
		Found:  true,
		Info:   &info,
		Report: report,
	}, nil
}

func (a *Analyzer) generate(ctx context.Context, prompt string) (string, error) {
	req := domain.NewPromptRequest(prompt).WithSystem(loadSystemPrompt(a.promptStore))

	start := time.Now()
	out, err := a.llm.Complete(ctx, req, driven.DefaultGenerateOptions())
	if a.metrics != nil {
		a.metrics.Generation(a.llm.ModelName(), err == nil, time.Since(start))
	}
	return out, err
}

// loadSystemPrompt returns the configured system prompt or the default.
func loadSystemPrompt(store driven.PromptStore) string {
	if store == nil {
		return domain.DefaultSystemPrompt
	}
	p, err := store.Load(driven.PromptSystem)
	if err != nil || strings.TrimSpace(p) == "" {
		return domain.DefaultSystemPrompt
	}
	return strings.TrimSpace(p)
}
