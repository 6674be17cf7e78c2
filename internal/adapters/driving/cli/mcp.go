package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cvescope/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cvescope/internal/adapters/driving/mcp"
	"github.com/custodia-labs/cvescope/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can analyse
vulnerabilities and read stored reports.

By default, the server communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead, which also serves Prometheus
metrics at /metrics.

Prompt templates in ~/.cvescope/prompts are reloaded when they change.

Examples:
  # Stdio mode (default)
  cvescope mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  cvescope mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "cvescope": {
        "command": "/path/to/cvescope",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Annotations: map[string]string{annotationLLM: "true"},
	RunE:        runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Analyzer: analyzer,
		History:  historyService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if promptStore != nil && promptDir != "" {
		go func() {
			if err := file.WatchPrompts(ctx, promptDir, promptStore); err != nil {
				logger.Warn("prompt reload disabled: %v", err)
			}
		}()
	}

	if port > 0 {
		if metricsRecorder != nil {
			server.SetMetricsHandler(metricsRecorder.Handler())
		}
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
