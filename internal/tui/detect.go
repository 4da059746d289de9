package tui

import (
	"os"

	"golang.org/x/term"
)

// Terminal records which standard streams reach a terminal.
type Terminal struct {
	Stdin  bool
	Stdout bool
	Stderr bool
}

// Detect inspects the process's streams. SHPLOAD_NON_INTERACTIVE=1, CI or
// NO_COLOR turn every stream plain regardless of what is attached.
func Detect() Terminal {
	return detect(os.Getenv, term.IsTerminal)
}

func detect(getenv func(string) string, isTerminal func(fd int) bool) Terminal {
	if getenv("SHPLOAD_NON_INTERACTIVE") == "1" || getenv("CI") != "" || getenv("NO_COLOR") != "" {
		return Terminal{}
	}
	return Terminal{
		Stdin:  isTerminal(int(os.Stdin.Fd())),
		Stdout: isTerminal(int(os.Stdout.Fd())),
		Stderr: isTerminal(int(os.Stderr.Fd())),
	}
}

// CanAnimate reports whether a spinner may redraw on stderr. The spinner also
// listens for ctrl+c, so stdin must be a terminal too.
func (t Terminal) CanAnimate() bool {
	return t.Stdin && t.Stderr
}

// CanStyle reports whether stdout output may carry ANSI styling.
func (t Terminal) CanStyle() bool {
	return t.Stdout
}
