package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/coderag/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio with the tools ask_codebase, search_codebase and index_status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		a.live = true

		answerer, store, err := a.createAnswerer(true)
		if err != nil {
			return err
		}
		defer store.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		n, _ := store.Count(context.Background())
		fmt.Fprintf(os.Stderr, "coderag MCP server started on stdio (collection=%s, chunks=%d)\n", a.collection, n)

		srv := mcpserver.NewServer(answerer, store, a.cfg.TopK)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
