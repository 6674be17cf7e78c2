// Package cli provides the cobra command tree for cvescope.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/cvescope/internal/adapters/driving/cli/styles"
	"github.com/custodia-labs/cvescope/internal/core/ports/driving"
	"github.com/custodia-labs/cvescope/internal/logger"
)

// Command annotations read by the wiring step.
const (
	annotationNoWiring = "cvescope/no-wiring"
	annotationLLM      = "cvescope/llm"
)

var (
	version = "dev"

	verbose bool
	dataDir string
	noColor bool

	settingsService driving.SettingsService
	analyzer        driving.Analyzer
	historyService  driving.HistoryService
	chatService     driving.ChatService

	// out styles terminal output. Disabled until a TTY is detected.
	out = styles.NewStyles(nil, false)

	// initServices builds the services before a command runs.
	// Tests replace it to inject mocks.
	initServices = wireServices
)

var rootCmd = &cobra.Command{
	Use:   "cvescope",
	Short: "CVE lookup and analysis with an LLM security assistant",
	Long: `cvescope fetches vulnerability records from the NVD, asks a configured
LLM for a structured security analysis and keeps the resulting reports
and conversations in a local history.

Configuration lives in ~/.cvescope/config.toml. NVD_API_KEY,
CVESCOPE_LLM_API_KEY and CVESCOPE_DATA_DIR override it, and a .env file in
the working directory is loaded first.`,
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for history files (default ~/.cvescope/data)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases wired resources afterwards.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	out = styles.NewStyles(nil, !noColor && isTerminal(os.Stdout))

	if initServices == nil || cmd.Annotations[annotationNoWiring] == "true" {
		return nil
	}
	return initServices(cmd)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func needsLLM(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationLLM] == "true"
}
