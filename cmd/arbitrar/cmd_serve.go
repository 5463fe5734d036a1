package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/purs3lab/arbitrar/internal/logging"
	mcpserver "github.com/purs3lab/arbitrar/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing the catalog query tools
(list_packages, list_bc_files, num_slices, get_slice, get_trace, get_feature,
find_bc).

The server monitors for parent process death and self-terminates when the
client disconnects, so server processes do not accumulate.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	srv := mcpserver.NewServer(db)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting arbitrar MCP server over stdio", "db", rootFlags.db)
	return srv.Run(ctx)
}
