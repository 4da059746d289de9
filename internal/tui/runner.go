package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/shpload/internal/tui/components"
)

// Task is a unit of work shown behind a spinner. It returns a one-line summary.
type Task func(ctx context.Context) (string, error)

// RunTask runs task while a spinner shows message on stderr. Ctrl+C cancels
// the task's context and waits for it to return. Non-interactive sessions get
// plain start and result lines instead.
func RunTask(ctx context.Context, message string, task Task) error {
	if !Detect().CanAnimate() {
		return runPlain(ctx, os.Stderr, message, task)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newTaskModel(message, func() tea.Msg {
		result, err := task(ctx)
		if err != nil {
			return components.SpinnerFailed(err)
		}
		return components.SpinnerDone(result)
	}, cancel)

	final, err := tea.NewProgram(m, tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return fmt.Errorf("spinner: %w", err)
	}
	return final.(taskModel).spinner.Error()
}

func runPlain(ctx context.Context, w io.Writer, message string, task Task) error {
	fmt.Fprintf(w, "%s %s\n", SymbolSpinner, message)
	result, err := task(ctx)
	if err != nil {
		fmt.Fprintf(w, "%s %v\n", SymbolCross, err)
		return err
	}
	fmt.Fprintf(w, "%s %s\n", SymbolCheck, result)
	return nil
}

type taskModel struct {
	spinner components.Spinner
	run     tea.Cmd
	cancel  context.CancelFunc
}

func newTaskModel(message string, run tea.Cmd, cancel context.CancelFunc) taskModel {
	return taskModel{spinner: components.NewSpinner(message), run: run, cancel: cancel}
}

func (m taskModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), m.run)
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.spinner.SetMessage("Cancelling...")
		}
		return m, nil
	case components.SpinnerDoneMsg:
		m.spinner, _ = m.spinner.Update(msg)
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m taskModel) View() string {
	if m.spinner.IsDone() {
		return m.spinner.View() + "\n"
	}
	return m.spinner.View()
}
