package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/purs3lab/arbitrar/internal/database"
)

// The trace-level queries are declared so the CLI surface matches the
// catalog, but their rendering is not built; use the MCP tools instead.

var numTracesCmd = &cobra.Command{
	Use:   "num-traces",
	Short: "Count trace documents",
	RunE: func(*cobra.Command, []string) error {
		return fmt.Errorf("num-traces: %w", database.ErrUnimplemented)
	},
}

var traceCmd = &cobra.Command{
	Use:   "trace <bc> <function> <slice-id> <trace-id>",
	Short: "Pretty-print one def-use-graph document",
	Args:  cobra.ExactArgs(4),
	RunE: func(*cobra.Command, []string) error {
		return fmt.Errorf("trace: %w", database.ErrUnimplemented)
	},
}

var featureCmd = &cobra.Command{
	Use:   "feature <bc> <function> <slice-id> <trace-id>",
	Short: "Pretty-print one feature document",
	Args:  cobra.ExactArgs(4),
	RunE: func(*cobra.Command, []string) error {
		return fmt.Errorf("feature: %w", database.ErrUnimplemented)
	},
}
