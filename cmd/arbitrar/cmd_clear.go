package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearBCCmd = &cobra.Command{
	Use:   "clear-bc <bc>",
	Short: "Remove all analysis artifacts of one compiled unit",
	Long: `Removes every slice, def-use-graph and feature document produced for the
named unit, across all analyzed functions. Run before rebuilding a package so
stale artifacts do not mix with the new build's output.`,
	Args: cobra.ExactArgs(1),
	RunE: runClearBC,
}

func runClearBC(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}

	bc := args[0]
	if resolved, ok := db.FindBCName(bc); ok {
		bc = resolved
	}
	removed, err := db.ClearBC(bc)
	if err != nil {
		return fmt.Errorf("clear-bc: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d document(s) for %s\n", removed, bc)
	return nil
}
