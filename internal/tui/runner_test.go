package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/shpload/internal/tui/components"
)

func TestRunPlain_Success(t *testing.T) {
	var out bytes.Buffer
	err := runPlain(context.Background(), &out, "Reading zones.shp", func(context.Context) (string, error) {
		return "3 features", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Reading zones.shp") || !strings.Contains(out.String(), SymbolCheck+" 3 features") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunPlain_Failure(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("boom")
	err := runPlain(context.Background(), &out, "Reading", func(context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if !strings.Contains(out.String(), SymbolCross+" boom") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunTask_NonInteractive(t *testing.T) {
	t.Setenv("SHPLOAD_NON_INTERACTIVE", "1")

	called := false
	err := RunTask(context.Background(), "Working", func(context.Context) (string, error) {
		called = true
		return "done", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("task was not run")
	}
}

func TestTaskModel_QuitsWhenDone(t *testing.T) {
	m := newTaskModel("Working", nil, func() {})

	next, cmd := m.Update(components.SpinnerDone("ok"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	tm := next.(taskModel)
	if !tm.spinner.IsDone() || !tm.spinner.IsSuccess() {
		t.Error("spinner should be done and successful")
	}
	if !strings.Contains(tm.View(), "ok") {
		t.Errorf("view %q should contain result", tm.View())
	}
}

func TestTaskModel_CtrlCCancels(t *testing.T) {
	cancelled := false
	m := newTaskModel("Working", nil, func() { cancelled = true })

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !cancelled {
		t.Error("ctrl+c should cancel the task context")
	}
	if next.(taskModel).spinner.IsDone() {
		t.Error("model must wait for the task to return")
	}
}

func TestTaskModel_FailureKeepsError(t *testing.T) {
	boom := errors.New("boom")
	m := newTaskModel("Working", nil, func() {})

	next, _ := m.Update(components.SpinnerFailed(boom))
	if !errors.Is(next.(taskModel).spinner.Error(), boom) {
		t.Error("spinner should carry the task error")
	}
}
