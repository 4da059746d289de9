package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vvka-141/shpload/internal/db"
	"github.com/vvka-141/shpload/internal/history"
	"github.com/vvka-141/shpload/internal/logging"
	"github.com/vvka-141/shpload/pkg/shpload"
)

var historyCmd = &cobra.Command{
	Use:   "history [table]",
	Short: "List recorded loads",
	Long: `History lists loads recorded with --history (or 'history: true' in
shpload.yaml), newest first. Give a [schema.]table to filter.

Examples:
  shpload history -d gis
  shpload history boundaries.countries -d gis --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

type historyFlagValues struct {
	conn    connectionFlags
	limit   int
	timeout time.Duration
}

var historyFlags historyFlagValues

func init() {
	rootCmd.AddCommand(historyCmd)

	registerConnectionFlags(historyCmd, &historyFlags.conn)
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", history.DefaultListLimit, "Maximum number of entries")
	historyCmd.Flags().DurationVar(&historyFlags.timeout, "timeout", time.Minute, "Timeout for the query")
}

func runHistory(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig(".")
	if err != nil {
		return err
	}
	connConfig, err := resolveConnection(historyFlags.conn, projectCfg, verbose)
	if err != nil {
		return err
	}

	var filter *shpload.TableName
	if len(args) == 1 {
		t := shpload.ParseTableName(args[0])
		filter = &t
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), historyFlags.timeout)
	defer cancel()

	logger := logging.NewConsoleLogger(verbose)
	connector, err := db.NewConnector(connConfig, logger)
	if err != nil {
		return err
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	rec, err := history.OpenFromPool(pool, logger)
	if err != nil {
		return err
	}
	defer rec.Close()

	entries, err := rec.List(ctx, filter, historyFlags.limit)
	if err != nil {
		if isUndefinedTable(err) {
			fmt.Fprintln(os.Stderr, "No load history recorded yet. Use --history when loading.")
			return nil
		}
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No matching loads.")
		return nil
	}

	renderHistory(os.Stdout, entries)
	return nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

// renderHistory prints entries as a table.
func renderHistory(w io.Writer, entries []history.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Loaded at", "Table", "Rows", "Mode", "Duration", "Source", "Checksum"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.LoadedAt.Local().Format(time.DateTime),
			e.Table().String(),
			e.Rows,
			entryMode(e),
			(time.Duration(e.DurationMS) * time.Millisecond).String(),
			e.Source,
			shortChecksum(e.Checksum),
		})
	}
	t.Render()
}

func entryMode(e history.Entry) string {
	switch {
	case e.Replaced:
		return "replaced"
	case e.Appended:
		return "appended"
	default:
		return "created"
	}
}

func shortChecksum(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
