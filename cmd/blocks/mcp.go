package main

import (
	"context"

	"github.com/aretw0/blocks/internal/cli"
	"github.com/aretw0/blocks/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the designer as MCP tools",
	Long:  `Starts a Model Context Protocol server over stdio (default) or SSE, exposing get_page, add_block, toggle_field, remove_node and list_catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		srv := mcp.NewServer(app.Engine, app.Logger)
		if sse, _ := cmd.Flags().GetString("sse"); sse != "" {
			return cli.HandleExecutionError(srv.ServeSSE(sigCtx, sse))
		}
		return cli.HandleExecutionError(srv.ServeStdio())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("sse", "", "Serve over SSE on this address instead of stdio (e.g. :8090)")
}
