package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/purs3lab/arbitrar/internal/format"
)

var packagesFlags struct {
	markdown bool
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List registered packages with fetch and build status",
	RunE:  runPackages,
}

func init() {
	packagesCmd.Flags().BoolVar(&packagesFlags.markdown, "markdown", false, "Render as a Markdown table")
}

func runPackages(cmd *cobra.Command, _ []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}

	mode := format.ASCII
	if packagesFlags.markdown {
		mode = format.Markdown
	}
	tbl := format.NewTable(mode)
	tbl.Header("Package", "Fetched", "Build", "BC Files")
	tbl.Columns(format.ColumnConfig{Number: 4, Align: format.AlignRight})
	for _, p := range db.Packages() {
		tbl.Row(p.Name, p.FetchStatus(), string(p.Build.Result), len(p.Build.BCFiles))
	}
	fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
	return nil
}
