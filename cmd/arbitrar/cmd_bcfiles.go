package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bcFilesFlags struct {
	pkg  string
	full bool
}

var bcFilesCmd = &cobra.Command{
	Use:   "bc-files",
	Short: "List the compiled analysis units",
	RunE:  runBCFiles,
}

func init() {
	f := bcFilesCmd.Flags()
	f.StringVar(&bcFilesFlags.pkg, "package", "", "Restrict to one package (default: all)")
	f.BoolVar(&bcFilesFlags.full, "full", false, "Print full paths instead of base names")
}

func runBCFiles(cmd *cobra.Command, _ []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	seq, err := db.BCFiles(bcFilesFlags.pkg, bcFilesFlags.full)
	if err != nil {
		return fmt.Errorf("bc-files: %w", err)
	}
	out := cmd.OutOrStdout()
	for bc := range seq {
		fmt.Fprintln(out, bc)
	}
	return nil
}
