package driving

import (
	"context"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

// Analyzer fetches, normalises and analyses a single CVE.
type Analyzer interface {
	// QueryAndAnalyze returns the rendered report for id. A registry miss
	// is not an error: the result has Found == false and a not-found
	// message. Nothing is persisted.
	QueryAndAnalyze(ctx context.Context, id string) (*domain.Analysis, error)
}
