// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents call Doccy tools over stdio
package commands

import (
	"context"
	"fmt"

	"github.com/harper/doccy/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs Doccy as an MCP (Model Context Protocol) server over stdio,
exposing process_query, analyze_content, enrich_content and
data_store as tools for LLM agents.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  doccy mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "doccy": {
  #       "command": "doccy",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	services, err := loadServices(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			services.Logger.Warn("error closing services", "error", err)
		}
	}()

	server := mcpserver.NewMCPServer("Doccy", currentVersion().Version)
	mcp.RegisterTools(server, services)

	ctx, stop := signalContext(context.Background())
	defer stop()

	services.Logger.Info("mcp server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		services.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
