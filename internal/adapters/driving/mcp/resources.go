package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for cvescope resources.
	uriScheme = "cvescope://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "reports",
		Name:        "reports",
		Description: "Stored CVE analysis reports, most recent first",
		MIMEType:    "application/json",
	}, s.handleReportsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Conversation sessions, most recently updated first",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "reports/{cveId}",
		Name:        "report",
		Description: "Most recent stored report for a CVE",
		MIMEType:    "text/markdown",
	}, s.handleReportResource)
}

// handleReportsResource returns all stored report summaries.
func (s *Server) handleReportsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	reports, err := s.ports.History.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	infos := make([]ReportSummaryOutput, len(reports))
	for i := range reports {
		infos[i] = toSummaryOutput(reports[i])
	}
	return jsonResource(req.Params.URI, infos)
}

// handleSessionsResource returns all session summaries.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sessions, err := s.ports.History.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	type sessionInfo struct {
		ID           string    `json:"session_id"`
		CreatedAt    time.Time `json:"created_at"`
		LastUpdated  time.Time `json:"last_updated"`
		MessageCount int       `json:"message_count"`
		CVEQueries   []string  `json:"cve_queries"`
		Preview      string    `json:"preview"`
	}

	infos := make([]sessionInfo, len(sessions))
	for i, sess := range sessions {
		infos[i] = sessionInfo{
			ID:           sess.ID,
			CreatedAt:    sess.CreatedAt,
			LastUpdated:  sess.LastUpdated,
			MessageCount: sess.MessageCount,
			CVEQueries:   sess.CVEQueries,
			Preview:      sess.Preview,
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleReportResource returns the markdown of the most recent report for a CVE.
func (s *Server) handleReportResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract cveId from URI: cvescope://reports/{cveId}
	id, err := domain.NormalizeCVEID(extractCVEID(req.Params.URI))
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	report, err := s.ports.History.LoadReport(ctx, id, "")
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("loading report: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     report.Content,
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCVEID extracts the identifier from a URI like cvescope://reports/{cveId}.
func extractCVEID(uri string) string {
	const prefix = uriScheme + "reports/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
