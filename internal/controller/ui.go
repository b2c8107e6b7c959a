// Package controller provides output adapters for displaying pipeline runs.
package controller

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"reshape.dev/pkg/reshape/internal/adapter"
	m "reshape.dev/pkg/reshape/internal/model"
)

// StartOption is a functional option for the Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	showDiffs bool
}

// WithDiffs makes the UI print unified diffs alongside the result table.
func WithDiffs() StartOption {
	return func(c *StartConfig) {
		c.showDiffs = true
	}
}

// UI defines the interface for displaying pipeline progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
// CycleStarted and RecipeFinished make every UI a scheduler observer.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	CycleStarted(cycle, files int)
	RecipeFinished(name string, took time.Duration)
	DisplayResults(ctx context.Context, pipeline string, results []m.Result, stats *m.RunStats) error
	DisplayRecipeTypes(ctx context.Context, types []string)
	DisplayReport(ctx context.Context, report adapter.RunReport) error
}

// NewUI picks the TUI on interactive terminals and the simple printer
// everywhere else.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
