package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

var (
	reportsLimit   int
	reportsSession string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse stored vulnerability reports",
	RunE:  runReportsList,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports, most recent first",
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <CVE-ID>",
	Short: "Show a stored report",
	Long: `Show the stored report for a CVE. The report from --session is
preferred; otherwise the most recent one is shown.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportsShow,
}

func init() {
	reportsListCmd.Flags().IntVarP(&reportsLimit, "limit", "n", 20, "maximum reports to list (0 = all)")
	reportsShowCmd.Flags().StringVar(&reportsSession, "session", "", "prefer the report from this session")
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	rootCmd.AddCommand(reportsCmd)
}

func runReportsList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	reports, err := historyService.ListReports(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	if len(reports) == 0 {
		cmd.Println("No reports stored.")
		return nil
	}

	total := len(reports)
	if reportsLimit > 0 && len(reports) > reportsLimit {
		reports = reports[:reportsLimit]
	}

	cmd.Printf("Reports (%d of %d):\n\n", len(reports), total)
	for i := range reports {
		r := &reports[i]
		cmd.Printf("  %-18s %s  %6d chars\n",
			out.Render(out.Title, r.CVEID), r.QueryTime.Local().Format(timeLayout), r.ContentLength)
		cmd.Printf("    %s\n", out.Render(out.Muted, r.Preview))
	}
	return nil
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	cveID, err := domain.NormalizeCVEID(args[0])
	if err != nil {
		return err
	}

	report, err := historyService.LoadReport(cmd.Context(), cveID, reportsSession)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no stored report for %s", cveID)
	}
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	cmd.Println(out.Render(out.Muted, fmt.Sprintf("Stored %s (session %s)",
		report.QueryTime.Local().Format(timeLayout), report.SessionID)))
	cmd.Println()
	cmd.Println(out.Markdown(report.Content))
	return nil
}
