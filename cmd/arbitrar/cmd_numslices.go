package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/purs3lab/arbitrar/internal/database"
	"github.com/purs3lab/arbitrar/internal/format"
)

var numSlicesFlags struct {
	pkg      string
	bc       string
	function string
}

var numSlicesCmd = &cobra.Command{
	Use:   "num-slices",
	Short: "Count slice documents, with optional filters",
	RunE:  runNumSlices,
}

func init() {
	f := numSlicesCmd.Flags()
	f.StringVar(&numSlicesFlags.pkg, "package", "", "Sum per-unit counts over one package's units")
	f.StringVar(&numSlicesFlags.bc, "bc", "", "Restrict to units whose name contains this fragment")
	f.StringVar(&numSlicesFlags.function, "function", "", "Restrict to one analyzed function")
}

func runNumSlices(cmd *cobra.Command, _ []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if numSlicesFlags.pkg != "" {
		pkg, ok := db.GetPackage(numSlicesFlags.pkg)
		if !ok {
			return fmt.Errorf("num-slices: package %s: %w", numSlicesFlags.pkg, database.ErrUnknownPackage)
		}
		tbl := format.NewTable(format.ASCII)
		tbl.Header("BC File", "Slices")
		tbl.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
		total := 0
		for _, bc := range pkg.BCNames() {
			n, err := db.NumSlices(numSlicesFlags.function, bc)
			if err != nil {
				return fmt.Errorf("num-slices: %w", err)
			}
			tbl.Row(bc, n)
			total += n
		}
		tbl.Footer("total", total)
		fmt.Fprintln(out, tbl.String())
		return nil
	}

	n, err := db.NumSlices(numSlicesFlags.function, numSlicesFlags.bc)
	if err != nil {
		return fmt.Errorf("num-slices: %w", err)
	}
	fmt.Fprintln(out, n)
	return nil
}
