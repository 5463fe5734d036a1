// arbitrar is the artifact-store CLI: package catalog queries, slice
// inspection, the active-learning oracle loop, and an MCP stdio server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/purs3lab/arbitrar/internal/database"
	"github.com/purs3lab/arbitrar/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	db        string
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "arbitrar",
	Short: "Artifact store and active-learning loop for API-misuse analysis",
	Long: "Arbitrar manages the on-disk artifact store produced by the slicing and\n" +
		"trace-analysis stages and runs the interactive oracle loop over it.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.db, "db", "arbitrar-data", "Database directory")
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(packagesCmd)
	rootCmd.AddCommand(bcFilesCmd)
	rootCmd.AddCommand(numSlicesCmd)
	rootCmd.AddCommand(sliceCmd)
	rootCmd.AddCommand(numTracesCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(featureCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(clearBCCmd)
	rootCmd.Version = version
}

// openDatabase opens the store named by the persistent --db flag.
func openDatabase() (*database.Database, error) {
	db, err := database.Open(rootFlags.db)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", rootFlags.db, err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
