package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/logger"
)

var (
	querySession string
	queryNoSave  bool
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query <CVE-ID>",
	Short: "Analyse a single vulnerability",
	Long: `Fetch a CVE record from the registry, generate an AI analysis and print
the resulting report.

The report is saved to history and the exchange is appended to the current
session unless --no-save is given.`,
	Example:     "  cvescope query CVE-2021-44228\n  cvescope query cve-2024-3094 --json",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationLLM: "true"},
	RunE:        runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&querySession, "session", "", "session to record the analysis in")
	queryCmd.Flags().BoolVar(&queryNoSave, "no-save", false, "do not store the report")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the analysis as JSON")
	rootCmd.AddCommand(queryCmd)
}

// queryResult is the --json output.
type queryResult struct {
	CVEID     string `json:"cve_id"`
	Found     bool   `json:"found"`
	Severity  string `json:"severity,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Report    string `json:"report"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	if analyzer == nil {
		return errors.New("analyzer not configured")
	}

	cveID, err := domain.NormalizeCVEID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	analysis, err := analyzer.QueryAndAnalyze(ctx, cveID)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	sessionID := querySession
	if analysis.Found && !queryNoSave && historyService != nil {
		id, err := historyService.RecordAnalysis(ctx, querySession, analysis)
		if err != nil {
			logger.Warn("report not saved: %v", err)
		} else {
			sessionID = id
		}
	}

	if queryJSON {
		result := queryResult{
			CVEID:     analysis.CVEID,
			Found:     analysis.Found,
			SessionID: sessionID,
			Report:    analysis.Report,
		}
		if analysis.Info != nil {
			result.Severity = analysis.Info.Severity()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !analysis.Found {
		cmd.Println(out.Render(out.Warning, analysis.Report))
		return nil
	}
	cmd.Println(out.Markdown(analysis.Report))
	return nil
}
