package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// ConfirmWord must be typed to approve replacing tables.
const ConfirmWord = "yes"

// InteractiveApprover implements the Approver interface for console-based
// confirmation. The user must type ConfirmWord to proceed.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates a new InteractiveApprover on stdin/stderr.
func NewInteractiveApprover(verbose bool) shpload.Approver {
	return &InteractiveApprover{verbose: verbose, input: os.Stdin, output: os.Stderr}
}

// RequestApproval prompts the user to confirm dropping tables.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, tables []shpload.TableName) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: You are about to DROP and RECREATE %d table(s):\n", len(tables))
	writeTables(a.output, tables)
	fmt.Fprintln(a.output, "This will permanently delete the rows currently in these tables!")
	fmt.Fprintf(a.output, "\nTo confirm, type '%s' and press Enter: ", ConfirmWord)

	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if strings.EqualFold(input, ConfirmWord) {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding with table replacement...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' is not '%s'. Operation cancelled.\n", input, ConfirmWord)
		return false, nil
	}
}

var _ shpload.Approver = (*InteractiveApprover)(nil)
