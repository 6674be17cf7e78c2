// Package mcp provides an MCP (Model Context Protocol) server adapter for cvescope.
// It lets AI assistants analyse CVEs and read stored reports and sessions.
package mcp

import "errors"

var (
	// ErrMissingAnalyzer is returned when the analyzer is not provided.
	ErrMissingAnalyzer = errors.New("mcp: analyzer is required")

	// ErrMissingHistoryService is returned when the history service is not provided.
	ErrMissingHistoryService = errors.New("mcp: history service is required")
)
