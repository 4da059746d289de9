package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/vvka-141/shpload/internal/files/scanner"
	"github.com/vvka-141/shpload/internal/loader"
	"github.com/vvka-141/shpload/internal/logging"
	"github.com/vvka-141/shpload/internal/schema"
	"github.com/vvka-141/shpload/internal/store"
	"github.com/vvka-141/shpload/internal/tui"
	"github.com/vvka-141/shpload/pkg/shpload"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <source.shp|directory>",
	Short: "Show the table a shapefile would be loaded into",
	Long: `Inspect reads shapefile headers without connecting to a database and prints
the inferred table: columns and their PostgreSQL types, geometry type, SRID,
feature count, character encoding and bounding box.

Use --sql to print the CREATE TABLE statement instead.

Examples:
  shpload inspect ./data/parcels.shp
  shpload inspect ./data --recursive
  shpload inspect ./data/parcels.shp --sql --schema cadastre`,
	Args: RequireSourcePath,
	RunE: runInspect,
}

type inspectFlagValues struct {
	schema         string
	srid           int
	targetSRID     int
	geometryColumn string
	recursive      bool
	sql            bool
}

var inspectFlags inspectFlagValues

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectFlags.schema, "schema", shpload.DefaultSchema, "Schema used in the reported table name")
	inspectCmd.Flags().IntVar(&inspectFlags.srid, "srid", 0, "SRID of the source coordinates (default: from .prj, else 4326)")
	inspectCmd.Flags().IntVar(&inspectFlags.targetSRID, "target-srid", 0, "SRID the geometry column would be declared with")
	inspectCmd.Flags().StringVar(&inspectFlags.geometryColumn, "geometry-column", "", "Name of the geometry column (default: geom)")
	inspectCmd.Flags().BoolVarP(&inspectFlags.recursive, "recursive", "r", false, "Scan subdirectories when inspecting a directory")
	inspectCmd.Flags().BoolVar(&inspectFlags.sql, "sql", false, "Print CREATE TABLE statements")
}

// inspectRequests returns one request per shapefile at path.
func inspectRequests(path string, f *inspectFlagValues) ([]shpload.LoadRequest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w: %w", path, err, shpload.ErrInvalidConfig)
	}

	var reqs []shpload.LoadRequest
	if info.IsDir() {
		datasets, err := scanner.NewScanner().ScanDirectory(path, f.recursive)
		if err != nil {
			return nil, err
		}
		reqs = scanner.Requests(datasets, f.schema, false, false)
	} else {
		name, err := schema.InferTableName(path)
		if err != nil {
			return nil, err
		}
		reqs = []shpload.LoadRequest{{Source: path, Table: shpload.TableName{Schema: f.schema, Name: name}}}
	}

	for i := range reqs {
		reqs[i].SRID = f.srid
		reqs[i].TargetSRID = f.targetSRID
	}
	return reqs, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	reqs, err := inspectRequests(args[0], &inspectFlags)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return fmt.Errorf("no shapefiles found in %s: %w", args[0], shpload.ErrInvalidConfig)
	}

	opts := shpload.DefaultOptions()
	if inspectFlags.geometryColumn != "" {
		opts.GeometryColumn = inspectFlags.geometryColumn
	}
	l := loader.New(opts, logging.NewNullLogger())

	plans := make([]*loader.Plan, 0, len(reqs))
	err = tui.RunTask(commandContext(cmd), fmt.Sprintf("Reading %d source(s)...", len(reqs)), func(ctx context.Context) (string, error) {
		for _, req := range reqs {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			plan, err := l.Describe(req)
			if err != nil {
				return "", err
			}
			plans = append(plans, plan)
		}
		return fmt.Sprintf("Read %d source(s)", len(plans)), nil
	})
	if err != nil {
		return err
	}

	for _, p := range plans {
		if inspectFlags.sql {
			fmt.Fprintln(os.Stdout, store.CreateTableSQL(p.Table)+";")
			continue
		}
		renderPlan(os.Stdout, p)
	}
	return nil
}

// renderPlan prints the source summary followed by the column mapping.
func renderPlan(w io.Writer, p *loader.Plan) {
	fmt.Fprintln(w, tui.Styled(tui.TitleStyle, p.Table.Name.String()))

	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleLight)
	summary.AppendRows([]table.Row{
		{"Source", p.Info.Path},
		{"Shape type", p.Info.ShapeType},
		{"Geometry", fmt.Sprintf("%s(%s, %d)", p.Table.GeometryColumn, p.Table.GeometryType, p.Table.SRID)},
		{"Source SRID", sridLabel(p.SourceSRID, p.Info.SRID)},
		{"Features", p.Info.Features},
		{"Encoding", p.Info.Encoding},
		{"Extent", fmt.Sprintf("%g %g, %g %g", p.Info.BBox.MinX, p.Info.BBox.MinY, p.Info.BBox.MaxX, p.Info.BBox.MaxY)},
	})
	summary.Render()

	columns := table.NewWriter()
	columns.SetOutputMirror(w)
	columns.SetStyle(table.StyleLight)
	columns.AppendHeader(table.Row{"#", "Column", "Type", "DBF field", "DBF type"})
	columns.AppendRow(table.Row{"", p.Table.KeyColumn, "serial", "", ""})
	for i, c := range p.Table.Columns {
		field := p.Info.Fields[c.Field]
		columns.AppendRow(table.Row{i + 1, c.Name, c.Type, c.Source, fmt.Sprintf("%c(%d,%d)", c.FieldType, field.Size, field.Decimals)})
	}
	columns.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
	columns.Render()
	fmt.Fprintln(w)
}

func sridLabel(used, detected int) string {
	if detected == 0 {
		return fmt.Sprintf("%d (no .prj match)", used)
	}
	if used != detected {
		return fmt.Sprintf("%d (overrides .prj %d)", used, detected)
	}
	return fmt.Sprintf("%d (from .prj)", used)
}
