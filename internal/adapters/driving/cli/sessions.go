package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04"

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
	RunE:  runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recent first",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session transcript",
	Long:  `Show a session transcript. Without an id the current session is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionsShow,
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session and make it current",
	RunE:  runSessionsNew,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsNewCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	sessions, err := historyService.ListSessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions yet.")
		return nil
	}

	cmd.Printf("Sessions (%d):\n\n", len(sessions))
	for i := range sessions {
		s := &sessions[i]
		cmd.Printf("  %s\n", out.Render(out.Title, s.ID))
		cmd.Printf("    Updated:  %s\n", s.LastUpdated.Local().Format(timeLayout))
		cmd.Printf("    Messages: %d\n", s.MessageCount)
		if len(s.CVEQueries) > 0 {
			cmd.Printf("    CVEs:     %s\n", strings.Join(s.CVEQueries, ", "))
		}
		cmd.Printf("    %s\n", out.Render(out.Muted, s.Preview))
		cmd.Println()
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	var id string
	if len(args) == 1 {
		id = args[0]
	}

	session, err := historyService.GetSession(cmd.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		if id == "" {
			cmd.Println("No current session.")
			return nil
		}
		return fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	cmd.Printf("Session %s\n", out.Render(out.Title, session.ID))
	cmd.Printf("Created: %s\n", session.CreatedAt.Local().Format(time.RFC3339))
	cmd.Printf("Updated: %s\n", session.LastUpdated.Local().Format(time.RFC3339))
	if len(session.CVEQueries) > 0 {
		cmd.Printf("CVEs:    %s\n", strings.Join(session.CVEQueries, ", "))
	}
	cmd.Println()

	if session.MessageCount() == 0 {
		cmd.Println("No messages yet.")
		return nil
	}
	for _, m := range session.Messages {
		cmd.Println(out.Render(out.Subtitle, string(m.Role)+":"))
		cmd.Println(m.Content)
		cmd.Println()
	}
	return nil
}

func runSessionsNew(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	id, err := historyService.NewSession(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	cmd.Printf("Started session %s\n", id)
	return nil
}
