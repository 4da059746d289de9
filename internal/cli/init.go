package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/shpload/internal/config"
	"github.com/vvka-141/shpload/internal/logging"
	"github.com/vvka-141/shpload/internal/scaffold"
	"github.com/vvka-141/shpload/internal/tui"
	"github.com/vvka-141/shpload/pkg/shpload"
)

var initCmd = &cobra.Command{
	Use:   "init <directory>",
	Short: "Write a starter shpload.yaml for a directory of shapefiles",
	Long: `Scans <directory> for shapefiles and writes <directory>/shpload.yaml with
one layer per file. Edit the generated layers, then run 'shpload bulk <directory>'.

An existing shpload.yaml is never overwritten unless --force is given.

Examples:
  shpload init ./data
  shpload init ./data --recursive --schema boundaries --srid 4326 -d gis`,
	Args: RequireDirectory,
	RunE: runInit,
}

type initFlagValues struct {
	schema    string
	srid      int
	database  string
	host      string
	recursive bool
	force     bool
}

var initFlags initFlagValues

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initFlags.schema, "schema", "", "Target schema written to the config")
	initCmd.Flags().IntVar(&initFlags.srid, "srid", 0, "Default SRID written to the config")
	initCmd.Flags().StringVarP(&initFlags.database, "database", "d", "", "Database name written to the config")
	initCmd.Flags().StringVarP(&initFlags.host, "host", "h", "", "Database host written to the config")
	initCmd.Flags().BoolVarP(&initFlags.recursive, "recursive", "r", false, "Scan subdirectories")
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite an existing shpload.yaml")
}

func scaffoldOptions(f *initFlagValues) (scaffold.Options, error) {
	if f.srid < 0 {
		return scaffold.Options{}, fmt.Errorf("--srid must not be negative: %w", shpload.ErrInvalidConfig)
	}
	return scaffold.Options{
		Schema:     f.schema,
		SRID:       f.srid,
		Recursive:  f.recursive,
		Force:      f.force,
		Connection: config.ConnectionConfig{Host: f.host, Database: f.database},
	}, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := args[0]
	opts, err := scaffoldOptions(&initFlags)
	if err != nil {
		return err
	}

	path, datasets, err := scaffold.NewScaffolder(logging.NewConsoleLogger(getVerboseFlag(cmd))).CreateConfig(dir, opts)
	if err != nil {
		return err
	}
	printInitSummary(cmd.OutOrStdout(), path, len(datasets))
	return nil
}

func printInitSummary(w io.Writer, path string, layers int) {
	fmt.Fprintln(w, tui.Styled(tui.SuccessStyle, fmt.Sprintf("%s Wrote %s with %d layer(s)", tui.SymbolCheck, path, layers)))
	fmt.Fprintln(w, tui.Styled(tui.HelpStyle, "Review the layers, then run: shpload bulk "+filepath.Dir(path)))
}
