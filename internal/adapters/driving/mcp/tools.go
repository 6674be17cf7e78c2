package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// defaultListLimit bounds list_reports when no limit is given.
const defaultListLimit = 20

// AnalyzeInput is the input schema for the analyze_cve tool.
type AnalyzeInput struct {
	CVEID     string `json:"cve_id" jsonschema:"the CVE identifier, e.g. CVE-2021-44228"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session to record the analysis in (default: current session)"`
}

// AnalyzeOutput is the output schema for the analyze_cve tool.
type AnalyzeOutput struct {
	CVEID     string `json:"cve_id"`
	Found     bool   `json:"found"`
	Severity  string `json:"severity,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Report    string `json:"report"`
}

// GetReportInput is the input schema for the get_report tool.
type GetReportInput struct {
	CVEID     string `json:"cve_id" jsonschema:"the CVE identifier"`
	SessionID string `json:"session_id,omitempty" jsonschema:"prefer the report stored for this session"`
}

// ReportOutput is a stored report.
type ReportOutput struct {
	ID        string    `json:"id"`
	CVEID     string    `json:"cve_id"`
	SessionID string    `json:"session_id"`
	QueryTime time.Time `json:"query_time"`
	Report    string    `json:"report"`
}

// ListReportsInput is the input schema for the list_reports tool.
type ListReportsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of reports to return (default 20)"`
}

// ListReportsOutput is the output schema for the list_reports tool.
type ListReportsOutput struct {
	Reports []ReportSummaryOutput `json:"reports"`
	Count   int                   `json:"count"`
	Total   int                   `json:"total"`
}

// ReportSummaryOutput represents a single stored report in listings.
type ReportSummaryOutput struct {
	ID            string    `json:"id"`
	CVEID         string    `json:"cve_id"`
	SessionID     string    `json:"session_id"`
	QueryTime     time.Time `json:"query_time"`
	ContentLength int       `json:"content_length"`
	Preview       string    `json:"preview"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_cve",
		Description: "Fetch a CVE from the NVD, analyse it and store the report",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_report",
		Description: "Return a previously stored CVE analysis report",
	}, s.handleGetReport)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_reports",
		Description: "List stored CVE analysis reports, most recent first",
	}, s.handleListReports)
}

// handleAnalyze handles the analyze_cve tool invocation.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	analysis, err := s.ports.Analyzer.QueryAndAnalyze(ctx, input.CVEID)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	output := AnalyzeOutput{
		CVEID:  analysis.CVEID,
		Found:  analysis.Found,
		Report: analysis.Report,
	}
	if !analysis.Found {
		return nil, output, nil
	}
	if analysis.Info != nil {
		output.Severity = analysis.Info.Severity()
	}

	sessionID, err := s.ports.History.RecordAnalysis(ctx, input.SessionID, analysis)
	if err != nil {
		// Log and continue: the caller still gets the report.
		logger.Warn("storing analysis of %s: %v", analysis.CVEID, err)
	} else {
		output.SessionID = sessionID
	}
	return nil, output, nil
}

// handleGetReport handles the get_report tool invocation.
func (s *Server) handleGetReport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetReportInput,
) (*mcp.CallToolResult, ReportOutput, error) {
	id, err := domain.NormalizeCVEID(input.CVEID)
	if err != nil {
		return nil, ReportOutput{}, err
	}

	report, err := s.ports.History.LoadReport(ctx, id, input.SessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ReportOutput{}, fmt.Errorf("no stored report for %s: %w", id, err)
	}
	if err != nil {
		return nil, ReportOutput{}, err
	}

	return nil, ReportOutput{
		ID:        report.ID,
		CVEID:     report.CVEID,
		SessionID: report.SessionID,
		QueryTime: report.QueryTime,
		Report:    report.Content,
	}, nil
}

// handleListReports handles the list_reports tool invocation.
func (s *Server) handleListReports(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListReportsInput,
) (*mcp.CallToolResult, ListReportsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	reports, err := s.ports.History.ListReports(ctx)
	if err != nil {
		return nil, ListReportsOutput{}, err
	}

	total := len(reports)
	if len(reports) > limit {
		reports = reports[:limit]
	}

	output := ListReportsOutput{
		Reports: make([]ReportSummaryOutput, len(reports)),
		Count:   len(reports),
		Total:   total,
	}
	for i := range reports {
		output.Reports[i] = toSummaryOutput(reports[i])
	}
	return nil, output, nil
}

func toSummaryOutput(r domain.ReportSummary) ReportSummaryOutput {
	return ReportSummaryOutput{
		ID:            r.ID,
		CVEID:         r.CVEID,
		SessionID:     r.SessionID,
		QueryTime:     r.QueryTime,
		ContentLength: r.ContentLength,
		Preview:       r.Preview,
	}
}
