package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/shpload/internal/config"
	"github.com/vvka-141/shpload/internal/files/scanner"
	"github.com/vvka-141/shpload/internal/logging"
	"github.com/vvka-141/shpload/internal/schema"
	"github.com/vvka-141/shpload/pkg/shpload"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk <directory>",
	Short: "Load every shapefile in a directory",
	Long: `Bulk loads a set of shapefiles on one database session.

The sources come from the 'layers' list in <directory>/shpload.yaml when it is
present; otherwise every *.shp file in the directory is loaded into a table
named after the file. Every source is parsed before the first table is
touched, so a malformed file aborts the run without changes. Loads then run in
order and stop at the first failure; tables loaded before it remain.

Example shpload.yaml:
  schema: boundaries
  srid: 4326
  history: true
  layers:
    - file: admin/countries.shp
      table: countries
      replace: true
    - file: admin/regions.shp

Examples:
  # Load ./data/*.shp into public
  shpload bulk ./data -d gis

  # Walk subdirectories and replace existing tables without prompting
  shpload bulk ./data -d gis --recursive --replace --force`,
	Args: RequireDirectory,
	RunE: runBulk,
}

type bulkFlagValues struct {
	runFlags
	recursive bool
}

var bulkFlags bulkFlagValues

func init() {
	rootCmd.AddCommand(bulkCmd)

	registerRunFlags(bulkCmd, &bulkFlags.runFlags)
	bulkCmd.Flags().BoolVarP(&bulkFlags.recursive, "recursive", "r", false,
		"Scan subdirectories (ignored when shpload.yaml lists layers)")
}

// buildBulkRequests resolves the requests for dir from shpload.yaml layers or a directory scan.
func buildBulkRequests(dir string, f *bulkFlagValues, projectCfg *config.ProjectConfig, logger shpload.Logger) ([]shpload.LoadRequest, error) {
	schemaName := resolveSchema(&f.runFlags, projectCfg)

	var reqs []shpload.LoadRequest
	if projectCfg != nil && len(projectCfg.Layers) > 0 {
		logger.Verbose("Using %d layer(s) from %s", len(projectCfg.Layers), config.ConfigFileName)
		var err error
		reqs, err = projectCfg.Requests(dir, schema.InferTableName)
		if err != nil {
			return nil, err
		}
		for i := range reqs {
			if f.schema != "" && !strings.Contains(projectCfg.Layers[i].Table, ".") {
				reqs[i].Table.Schema = f.schema
			}
			if f.replace {
				reqs[i].Replace, reqs[i].Append = true, false
			}
			if f.appendRows && !reqs[i].Replace {
				reqs[i].Append = true
			}
		}
	} else {
		datasets, err := scanner.NewScanner().ScanDirectory(dir, f.recursive)
		if err != nil {
			return nil, err
		}
		logger.Verbose("Found %d shapefile(s) in %s", len(datasets), dir)
		reqs = scanner.Requests(datasets, schemaName, f.replace, f.appendRows)
		if projectCfg != nil {
			for i := range reqs {
				reqs[i].TargetSRID = projectCfg.TargetSRID
			}
		}
	}

	if len(reqs) == 0 {
		return nil, fmt.Errorf("no shapefiles found in %s: %w", dir, shpload.ErrInvalidConfig)
	}

	for i := range reqs {
		if f.srid != 0 {
			reqs[i].SRID = f.srid
		}
		if f.targetSRID != 0 {
			reqs[i].TargetSRID = f.targetSRID
		}
	}
	return reqs, nil
}

func runBulk(cmd *cobra.Command, args []string) error {
	dir := args[0]
	verbose := getVerboseFlag(cmd)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w: %w", dir, err, shpload.ErrInvalidConfig)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory; use 'shpload load' for a single file: %w", dir, shpload.ErrInvalidConfig)
	}

	projectCfg, err := loadProjectConfig(dir)
	if err != nil {
		return err
	}

	reqs, err := buildBulkRequests(dir, &bulkFlags, projectCfg, logging.NewConsoleLogger(verbose))
	if err != nil {
		return err
	}

	config, err := buildRunConfig(cmd, &bulkFlags.runFlags, projectCfg, reqs, verbose)
	if err != nil {
		return err
	}
	return executeRun(config)
}
