package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vvka-141/shpload/internal/checksum"
	"github.com/vvka-141/shpload/internal/db"
	"github.com/vvka-141/shpload/internal/loader"
	"github.com/vvka-141/shpload/internal/logging"
	"github.com/vvka-141/shpload/internal/services"
	"github.com/vvka-141/shpload/internal/tui"
	"github.com/vvka-141/shpload/internal/ui"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// executeRun wires the load service and runs config under the run timeout
// and SIGINT/SIGTERM cancellation.
func executeRun(config shpload.RunConfig) error {
	var approver shpload.Approver
	if config.Force {
		approver = ui.NewForcedApprover(config.Verbose)
	} else {
		approver = ui.NewInteractiveApprover(config.Verbose)
	}

	// The spinner owns the terminal while it runs; log lines are replayed after it.
	useSpinner := !config.Verbose && tui.Detect().CanAnimate() && !needsPrompt(config)
	var logBuf bytes.Buffer
	var logger shpload.Logger = logging.NewConsoleLogger(config.Verbose)
	if useSpinner {
		logger = logging.NewConsoleLoggerTo(&logBuf, false)
	}

	service := services.NewLoadService(
		func(c *shpload.ConnectionConfig) (shpload.Connector, error) {
			return db.NewConnector(c, logger)
		},
		approver,
		logger,
		loader.New(config.Options, logger),
		checksum.New(),
		services.OpenHistory,
	)

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling load...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var results []shpload.LoadResult
	run := func(ctx context.Context) (string, error) {
		var err error
		results, err = service.Run(ctx, config)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Loaded %d table(s), %d row(s)", len(results), totalRows(results)), nil
	}

	var err error
	if useSpinner {
		err = tui.RunTask(ctx, fmt.Sprintf("Loading %d source(s)...", len(config.Requests)), run)
		_, _ = io.Copy(os.Stderr, &logBuf)
	} else {
		_, err = run(ctx)
	}

	if len(results) > 0 {
		renderResults(os.Stdout, results)
	}
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	return nil
}

// needsPrompt reports whether the run may ask for interactive approval,
// which must not compete with the spinner for the terminal.
func needsPrompt(config shpload.RunConfig) bool {
	if config.Force {
		return false
	}
	for _, r := range config.Requests {
		if r.Replace {
			return true
		}
	}
	return false
}

func totalRows(results []shpload.LoadResult) int64 {
	var n int64
	for _, r := range results {
		n += r.Rows
	}
	return n
}

// renderResults prints one row per completed load.
func renderResults(w io.Writer, results []shpload.LoadResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Source", "Rows", "Mode", "Duration"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Table.String(), r.Source, r.Rows, loadMode(r), r.Duration.Round(time.Millisecond)})
	}
	t.AppendFooter(table.Row{"", "Total", totalRows(results), "", ""})
	t.Render()
}

func loadMode(r shpload.LoadResult) string {
	switch {
	case r.Replaced:
		return "replaced"
	case r.Appended:
		return "appended"
	default:
		return "created"
	}
}
