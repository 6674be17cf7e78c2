package mcp

import (
	"github.com/custodia-labs/cvescope/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analyzer fetches and analyses CVEs.
	Analyzer driving.Analyzer

	// History stores reports and exposes sessions.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Analyzer == nil {
		return ErrMissingAnalyzer
	}
	if p.History == nil {
		return ErrMissingHistoryService
	}
	return nil
}
