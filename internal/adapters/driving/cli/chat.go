package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/logger"
)

var (
	chatSession string
	chatNew     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive security assistant session",
	Long: `Chat with the security assistant. Entering a CVE identifier runs a full
analysis and stores the report; anything else is sent to the LLM with the
conversation so far.

Commands:
  history   show the conversation so far
  clear     start a new session
  quit      leave (also exit, q)`,
	Annotations: map[string]string{annotationLLM: "true"},
	RunE:        runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session to continue")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a new session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil || historyService == nil {
		return errors.New("chat service not configured")
	}

	ctx := cmd.Context()
	sessionID := chatSession
	if chatNew {
		id, err := historyService.NewSession(ctx)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		sessionID = id
	}

	cmd.Println(out.Render(out.Title, "cvescope security assistant"))
	cmd.Println(out.Render(out.Muted, "Enter a CVE ID or a question. Type 'quit' to leave."))
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())
	for {
		cmd.Print(out.Render(out.Prompt, "> "))
		line, readErr := reader.ReadString('\n')
		input := strings.TrimSpace(line)

		if input != "" || readErr == nil {
			var quit bool
			sessionID, quit = handleChatInput(ctx, cmd, sessionID, input)
			if quit {
				return nil
			}
		}
		if readErr != nil {
			cmd.Println()
			return nil
		}
	}
}

// handleChatInput processes one line and returns the active session id
// and whether the loop should stop.
func handleChatInput(ctx context.Context, cmd *cobra.Command, sessionID, input string) (string, bool) {
	switch strings.ToLower(input) {
	case "":
		cmd.Println("Please enter a message.")
		return sessionID, false
	case "quit", "exit", "q":
		cmd.Println("Goodbye.")
		return sessionID, true
	case "clear":
		id, err := historyService.NewSession(ctx)
		if err != nil {
			cmd.Println(out.Render(out.Error, fmt.Sprintf("Error: %v", err)))
			return sessionID, false
		}
		cmd.Println("Started a new session.")
		return id, false
	case "history":
		printTranscript(ctx, cmd, sessionID)
		return sessionID, false
	}

	if cveID, err := domain.NormalizeCVEID(input); err == nil {
		return chatAnalyze(ctx, cmd, sessionID, cveID), false
	}

	id, reply, err := chatService.Send(ctx, sessionID, input)
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) {
			cmd.Println(out.Render(out.Warning, "No LLM is configured. Run 'cvescope settings llm'."))
		} else {
			cmd.Println(out.Render(out.Error, fmt.Sprintf("Error: %v", err)))
		}
		if id != "" {
			return id, false
		}
		return sessionID, false
	}
	cmd.Println(out.Markdown(reply))
	cmd.Println()
	return id, false
}

func chatAnalyze(ctx context.Context, cmd *cobra.Command, sessionID, cveID string) string {
	cmd.Println(out.Render(out.Muted, "Analysing "+cveID+"..."))
	analysis, err := analyzer.QueryAndAnalyze(ctx, cveID)
	if err != nil {
		cmd.Println(out.Render(out.Error, fmt.Sprintf("Error: %v", err)))
		return sessionID
	}
	if !analysis.Found {
		cmd.Println(out.Render(out.Warning, analysis.Report))
		return sessionID
	}

	cmd.Println(out.Markdown(analysis.Report))
	cmd.Println()

	id, err := historyService.RecordAnalysis(ctx, sessionID, analysis)
	if err != nil {
		logger.Warn("report not saved: %v", err)
		return sessionID
	}
	return id
}

func printTranscript(ctx context.Context, cmd *cobra.Command, sessionID string) {
	session, err := historyService.GetSession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && session.MessageCount() == 0) {
		cmd.Println("No messages yet.")
		return
	}
	if err != nil {
		cmd.Println(out.Render(out.Error, fmt.Sprintf("Error: %v", err)))
		return
	}
	for _, m := range session.Messages {
		cmd.Println(out.Render(out.Subtitle, string(m.Role)+":"))
		cmd.Println(m.Content)
		cmd.Println()
	}
}
