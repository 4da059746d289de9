package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shpload",
	Short: "Bulk-load shapefiles into PostGIS",
	Long: `shpload loads ESRI shapefiles into PostGIS tables.

Each load reads one .shp (with its .dbf, and optional .prj and .cpg sidecars),
derives a table from the attribute fields plus one geometry column, and
inserts the features in file order. A malformed file is rejected before any
table is touched. Loads are not atomic: rows inserted before a failure remain.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or load request
  11 - Database connection failed
  12 - User denied table replacement
  20 - Format error (source unreadable or unsupported)
  21 - Schema error (attribute type cannot be represented)
  22 - Permission error (drop/create denied, or table exists)
  23 - Store error (connectivity or transient failure)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for shpload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// commandContext returns the command's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
