package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old sessions and reports",
	Long: `Remove sessions not updated and reports not queried within the given
number of days. Defaults to the configured retention (30 days).`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "age cut-off in days (default from settings)")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	days := pruneDays
	if days == 0 && settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		days = settings.Storage.RetentionDays
	}
	if days <= 0 {
		return errors.New("--days must be positive")
	}

	result, err := historyService.Prune(cmd.Context(), days)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	cmd.Printf("Removed %d sessions and %d reports older than %d days.\n",
		result.Sessions, result.Reports, days)
	return nil
}
