package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireSourcePath validates that exactly one source argument is provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireSourcePath(cmd *cobra.Command, args []string) error {
	return requireOneArg(cmd, args, "source", "./data/parcels.shp")
}

// RequireDirectory validates that exactly one directory argument is provided.
func RequireDirectory(cmd *cobra.Command, args []string) error {
	return requireOneArg(cmd, args, "directory", "./data")
}

func requireOneArg(cmd *cobra.Command, args []string, name, example string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <%s>

Usage: %s

Example:
  %s %s -d gis`, name, cmd.UseLine(), cmd.CommandPath(), example)
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}
