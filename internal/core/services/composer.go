package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// GenerateFunc turns a prompt into generated text.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// maxRenderedReferences caps the reference list in a report.
const maxRenderedReferences = 5

// Composer builds the analysis prompt, calls the generator and renders reports.
type Composer struct {
	promptStore driven.PromptStore
}

// NewComposer creates a composer using the built-in prompt.
func NewComposer() *Composer {
	return &Composer{}
}

// SetPromptStore sets the prompt store for loading the analysis template.
func (c *Composer) SetPromptStore(store driven.PromptStore) {
	c.promptStore = store
}

// BuildPrompt renders the analysis prompt for info.
func (c *Composer) BuildPrompt(info domain.VulnerabilityInfo) string {
	tmpl := domain.DefaultAnalysisPrompt
	if c.promptStore != nil {
		if p, err := c.promptStore.Load(driven.PromptCVEAnalysis); err == nil && strings.TrimSpace(p) != "" {
			tmpl = p
		}
	}

	block := vulnerabilityBlock(info)
	if !strings.Contains(tmpl, "%s") {
		return tmpl + "\n\n" + block
	}
	return strings.Replace(tmpl, "%s", block, 1)
}

func vulnerabilityBlock(info domain.VulnerabilityInfo) string {
	scores := make([]string, 0, len(info.CVSSScores))
	for _, s := range info.CVSSScores {
		scores = append(scores, fmt.Sprintf("v%s: %s", s.Version, formatScore(s.BaseScore)))
	}
	cvss := strings.Join(scores, ", ")
	if cvss == "" {
		cvss = domain.NotAvailable
	}

	cwe := "none"
	if len(info.CWEIDs) > 0 {
		cwe = strings.Join(info.CWEIDs, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CVE ID: %s\n", info.ID)
	fmt.Fprintf(&b, "Published: %s\n", info.Published)
	fmt.Fprintf(&b, "Severity: %s\n", info.Severity())
	fmt.Fprintf(&b, "CVSS scores: %s\n\n", cvss)
	fmt.Fprintf(&b, "Description:\n%s\n\n", info.Description)
	fmt.Fprintf(&b, "CWE: %s", cwe)
	return b.String()
}

func formatScore(score *float64) string {
	if score == nil {
		return domain.NotAvailable
	}
	return fmt.Sprintf("%.1f", *score)
}

// Compose calls generate exactly once and renders the report. A failed or
// missing generator yields a fallback analysis; Compose itself never fails.
func (c *Composer) Compose(ctx context.Context, info domain.VulnerabilityInfo, generate GenerateFunc) string {
	return Render(info, c.analyse(ctx, info, generate))
}

func (c *Composer) analyse(ctx context.Context, info domain.VulnerabilityInfo, generate GenerateFunc) string {
	if generate == nil {
		return FallbackAnalysis(domain.ErrLLMUnavailable)
	}

	analysis, err := generate(ctx, c.BuildPrompt(info))
	if err != nil {
		logger.Warn("analysis for %s failed: %v", info.ID, err)
		return FallbackAnalysis(err)
	}
	return strings.TrimSpace(analysis)
}

// FallbackAnalysis is the analysis text used when generation fails.
func FallbackAnalysis(err error) string {
	return fmt.Sprintf("Analysis unavailable: %v", err)
}

// Render formats a report as markdown.
func Render(info domain.VulnerabilityInfo, analysis string) string {
	var b strings.Builder

	b.WriteString("# CVE Analysis Report\n\n")
	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "- **CVE ID**: %s\n", info.ID)
	fmt.Fprintf(&b, "- **Severity**: %s\n", info.Severity())
	fmt.Fprintf(&b, "- **Published**: %s\n", domain.DateOnly(info.Published))
	fmt.Fprintf(&b, "- **Last Modified**: %s\n", domain.DateOnly(info.LastModified))
	fmt.Fprintf(&b, "- **Status**: %s\n", info.Status)

	b.WriteString("\n## CVSS Scores\n")
	for _, s := range info.CVSSScores {
		if !s.HasScore() {
			continue
		}
		fmt.Fprintf(&b, "- **CVSS v%s**: %.1f/10.0 (%s)\n", s.Version, *s.BaseScore, s.BaseSeverity)
	}

	if len(info.CWEIDs) > 0 {
		b.WriteString("\n## CWE\n")
		for _, id := range info.CWEIDs {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	fmt.Fprintf(&b, "\n## Description\n%s\n", info.Description)
	fmt.Fprintf(&b, "\n## Analysis\n%s\n", analysis)

	if len(info.References) > 0 {
		b.WriteString("\n## References\n")
		for i, ref := range info.References {
			if i == maxRenderedReferences {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, ref)
		}
		if extra := len(info.References) - maxRenderedReferences; extra > 0 {
			fmt.Fprintf(&b, "... %d more\n", extra)
		}
	}

	return b.String()
}
