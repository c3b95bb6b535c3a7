package main

import (
	"fmt"
	"os"

	"github.com/savezy/savezy/pkg/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the savezy MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes saved items, tags,
search and the remote mirror as MCP tools via STDIO.

Example:

  savezy mcp --db savezy.db 2> server.log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, closeFn, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		client, err := newRemoteClient()
		if err != nil {
			return err
		}

		srv := mcp.NewSavezyMCPServer(c, client, logger)

		// Log to stderr so we don't contaminate the JSON-RPC stream on stdout.
		fmt.Fprintf(os.Stderr, "Savezy MCP server started. DB: %s, %d items loaded.\n", cfg.DBPath, c.Len())
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

		return srv.Start()
	},
}
