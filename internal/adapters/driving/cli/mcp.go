package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docaudit/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docaudit/internal/logger"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --http to serve over HTTP instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Tools: analyze_document, compose_email, list_rules.
Resources: docaudit://analyses and docaudit://analyses/{id}.

Examples:
  # Stdio mode (default, for Claude Desktop)
  docaudit mcp

  # HTTP mode (for MCP Inspector, remote access)
  docaudit mcp --http localhost:8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docaudit": {
        "command": "/path/to/docaudit",
        "args": ["mcp"]
      }
    }
  }

Prompt files edited while the server runs are picked up without a restart.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	ports := &mcp.Ports{
		Analysis: analysisService,
		Email:    emailService,
		Rules:    ruleService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()
	watchPrompts(ctx)

	if mcpHTTPAddr != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(ctx, mcpHTTPAddr)
	}

	return server.Run(ctx)
}

// watchPrompts reloads prompt files in the background until ctx ends.
func watchPrompts(ctx context.Context) {
	if promptWatcher == nil {
		return
	}
	go func() {
		if err := promptWatcher.Watch(ctx); err != nil {
			logger.Warn("prompt files will not reload: %v", err)
		}
	}()
}
