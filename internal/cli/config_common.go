package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/shpload/internal/config"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// runFlags holds the flags shared by load and bulk.
type runFlags struct {
	conn            connectionFlags
	schema          string
	srid            int
	targetSRID      int
	geometryColumn  string
	batchSize       int
	noSpatialIndex  bool
	createExtension bool
	history         bool
	force           bool
	replace         bool
	appendRows      bool
	timeout         time.Duration
}

// registerRunFlags adds connection, table and workflow flags to cmd.
func registerRunFlags(cmd *cobra.Command, f *runFlags) {
	registerConnectionFlags(cmd, &f.conn)

	cmd.Flags().StringVar(&f.schema, "schema", "",
		"Target schema (default: shpload.yaml schema, or public)")
	cmd.Flags().IntVar(&f.srid, "srid", 0,
		"SRID of the source coordinates (default: from .prj, else 4326)")
	cmd.Flags().IntVar(&f.targetSRID, "target-srid", 0,
		"Reproject geometries to this SRID on insert")
	cmd.Flags().StringVar(&f.geometryColumn, "geometry-column", "",
		"Name of the geometry column (default: geom)")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0,
		fmt.Sprintf("Inserts per round trip (default: %d)", shpload.DefaultBatchSize))
	cmd.Flags().BoolVar(&f.noSpatialIndex, "no-spatial-index", false,
		"Skip creating a GiST index on the geometry column")
	cmd.Flags().BoolVar(&f.createExtension, "create-extension", false,
		"Run CREATE EXTENSION IF NOT EXISTS postgis before loading")
	cmd.Flags().BoolVar(&f.history, "history", false,
		"Record each completed load in the shpload_history table")

	cmd.Flags().BoolVar(&f.replace, "replace", false,
		"Drop and recreate existing target tables\n"+
			"Requires interactive confirmation unless --force is used")
	cmd.Flags().BoolVar(&f.appendRows, "append", false,
		"Insert into existing target tables whose columns match the source")
	cmd.Flags().BoolVar(&f.force, "force", false,
		"Skip the interactive approval prompt for --replace\n"+
			"Use with --replace for CI/CD pipelines")

	// Catastrophic failure protection, not normal timeout control
	cmd.Flags().DurationVar(&f.timeout, "timeout", shpload.DefaultTimeout,
		"Catastrophic failure protection timeout\n"+
			"Prevents indefinite hangs from network issues or lock waits\n"+
			"Examples: 30s, 5m, 1h30m")

	cmd.MarkFlagsMutuallyExclusive("replace", "append")
}

// loadProjectConfig loads .env and shpload.yaml from dir.
// Returns nil config if shpload.yaml does not exist (not an error).
func loadProjectConfig(dir string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := config.Load(dir)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, err, shpload.ErrInvalidConfig)
	}
	return projectCfg, nil
}

// buildOptions layers defaults < shpload.yaml < flags.
func buildOptions(f *runFlags, projectCfg *config.ProjectConfig) shpload.Options {
	opts := projectCfg.ApplyOptions(shpload.DefaultOptions())
	if f.geometryColumn != "" {
		opts.GeometryColumn = f.geometryColumn
	}
	if f.batchSize > 0 {
		opts.BatchSize = f.batchSize
	}
	if f.noSpatialIndex {
		opts.SpatialIndex = false
	}
	return opts
}

// resolveSchema returns the flag schema, then shpload.yaml's, then public.
func resolveSchema(f *runFlags, projectCfg *config.ProjectConfig) string {
	if f.schema != "" {
		return f.schema
	}
	if projectCfg != nil && projectCfg.Schema != "" {
		return projectCfg.Schema
	}
	return shpload.DefaultSchema
}

// resolveEffectiveTimeout returns the effective timeout, preferring shpload.yaml if the flag wasn't set.
func resolveEffectiveTimeout(cmd *cobra.Command, projectCfg *config.ProjectConfig, flagTimeout time.Duration) (time.Duration, error) {
	if cmd.Flags().Changed("timeout") {
		return flagTimeout, nil
	}
	parsed, err := projectCfg.ParsedTimeout()
	if err != nil {
		return 0, err
	}
	if parsed > 0 {
		return parsed, nil
	}
	return flagTimeout, nil
}

// buildRunConfig assembles a RunConfig for reqs from flags and shpload.yaml.
func buildRunConfig(cmd *cobra.Command, f *runFlags, projectCfg *config.ProjectConfig, reqs []shpload.LoadRequest, verbose bool) (shpload.RunConfig, error) {
	connConfig, err := resolveConnection(f.conn, projectCfg, verbose)
	if err != nil {
		return shpload.RunConfig{}, err
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, f.timeout)
	if err != nil {
		return shpload.RunConfig{}, err
	}

	history := f.history
	if projectCfg != nil && projectCfg.History && !cmd.Flags().Changed("history") {
		history = true
	}

	return shpload.RunConfig{
		Requests:        reqs,
		Connection:      connConfig,
		Options:         buildOptions(f, projectCfg),
		Force:           f.force,
		CreateExtension: f.createExtension,
		RecordHistory:   history,
		Timeout:         timeout,
		Verbose:         verbose,
	}, nil
}
