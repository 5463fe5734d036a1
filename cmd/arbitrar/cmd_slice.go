package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var sliceCmd = &cobra.Command{
	Use:   "slice <bc> <function> <slice-id>",
	Short: "Pretty-print one slice document",
	Args:  cobra.ExactArgs(3),
	RunE:  runSlice,
}

func runSlice(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}

	bc, ok := db.FindBCName(args[0])
	if !ok {
		return fmt.Errorf("unknown bc file %q", args[0])
	}
	sliceID, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("slice-id must be an integer, got %q", args[2])
	}

	doc, err := db.Slice(args[1], bc, sliceID)
	if err != nil {
		return fmt.Errorf("slice: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("render slice: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
