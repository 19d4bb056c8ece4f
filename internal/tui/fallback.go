package tui

import (
	"fmt"
	"io"
)

// FallbackRunner handles non-TTY execution by guiding users to CLI commands.
type FallbackRunner struct {
	out io.Writer
}

// NewFallbackRunner creates a new FallbackRunner writing to out.
func NewFallbackRunner(out io.Writer) *FallbackRunner {
	return &FallbackRunner{out: out}
}

// Run prints guidance for running without a terminal.
func (f *FallbackRunner) Run() error {
	if _, err := fmt.Fprintln(f.out, "Non-TTY environment detected."); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f.out, "Use 'nback simulate' to run a session without a terminal.")
	return err
}
