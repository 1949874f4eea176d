// Package controller renders inspection results, fix progress and saved
// reports for the cleanspring CLI.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeInspect StartMode = iota
	ModeFix
	ModeView
)

func (s StartMode) String() string {
	switch s {
	case ModeInspect:
		return "inspect"
	case ModeFix:
		return "fix"
	case ModeView:
		return "view"
	}

	return "unknown"
}

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// Mode returns the configured mode.
func (c StartConfig) Mode() StartMode {
	return c.mode
}

// WithInspectMode sets the UI to inspection mode.
func WithInspectMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeInspect
	}
}

// WithFixMode sets the UI to fix mode.
func WithFixMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeFix
	}
}

// WithViewMode sets the UI to report viewing mode.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

func startConfig(options []StartOption) StartConfig {
	var cfg StartConfig
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI displays what a run found and did.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	// Closed is closed once the user dismisses the UI. It may be nil when
	// the UI cannot be dismissed.
	Closed() <-chan struct{}
	// DisplayProblems shows the problems of one detection pass together with
	// non-fatal load warnings such as unparsable files.
	DisplayProblems(ctx context.Context, problems []m.Problem, warnings []string) error
	DisplayFixResult(ctx context.Context, result m.FixResult)
	DisplayDiff(ctx context.Context, path m.Path, diff string)
	DisplayReport(ctx context.Context, report m.Report) error
}

// NewUI picks the interactive TUI on a terminal and plain tables otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
