package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// ForcedApprover implements the Approver interface for --force runs.
// It lists the tables about to be dropped, counts down and approves.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) shpload.Approver {
	return &ForcedApprover{verbose: verbose, output: os.Stderr, sleepFn: time.Sleep}
}

// RequestApproval displays a countdown and approves once it completes.
func (a *ForcedApprover) RequestApproval(ctx context.Context, tables []shpload.TableName) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, "DANGER: the following tables will be dropped and recreated:")
	writeTables(a.output, tables)
	fmt.Fprintln(a.output)

	countdownSeconds := int(shpload.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rDropping in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(time.Second)
		}
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with table replacement...                              \n")
	return true, nil
}

func writeTables(w io.Writer, tables []shpload.TableName) {
	for _, t := range tables {
		fmt.Fprintf(w, "  - %s\n", t)
	}
}

var _ shpload.Approver = (*ForcedApprover)(nil)
