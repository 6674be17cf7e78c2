package driven

import (
	"context"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

// VulnerabilityRegistry fetches raw vulnerability records from a remote registry.
//
// Fetch validates and normalises id before any network call. It returns:
//   - an error wrapping domain.ErrInvalidIdentifier for malformed ids
//   - domain.ErrNotFound when the registry has no record
//   - a *domain.NetworkError when every attempt failed
type VulnerabilityRegistry interface {
	Fetch(ctx context.Context, id string) (*domain.RawVulnerability, error)
}
