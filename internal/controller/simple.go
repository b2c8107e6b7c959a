package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"reshape.dev/pkg/reshape/internal/adapter"
	m "reshape.dev/pkg/reshape/internal/model"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd       *cobra.Command
	showDiffs bool
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var cfg StartConfig
	for _, opt := range options {
		opt(&cfg)
	}

	s.showDiffs = cfg.showDiffs

	return nil
}

// Close finalizes the UI (no-op for SimpleUI).
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// CycleStarted prints a cycle heading.
func (s *SimpleUI) CycleStarted(cycle, files int) {
	s.printf("Cycle %d: visiting %d file(s)\n", cycle, files)
}

// RecipeFinished prints per-recipe timing.
func (s *SimpleUI) RecipeFinished(name string, took time.Duration) {
	s.printf("  %s finished in %s\n", name, took.Round(time.Millisecond))
}

// DisplayResults prints the result table, optional diffs and the stats tree.
func (s *SimpleUI) DisplayResults(ctx context.Context, pipeline string, results []m.Result, stats *m.RunStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(results) == 0 {
		s.printf("\n%s: no changes\n", pipeline)
		return nil
	}

	s.printf("\n%s", renderResultsTable(pipeline, results))

	if s.showDiffs {
		for _, r := range results {
			if diff := r.Diff(); diff != "" {
				s.printf("\n%s", diff)
			}
		}
	}

	if stats != nil {
		s.printf("\n%s", renderStatsTable(stats))
	}

	return nil
}

func renderResultsTable(pipeline string, results []m.Result) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Kind", "Before", "After", "Recipes"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	// Pipeline names and paths land in the footer; keep their case intact.
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})

	var added, changed, removed int

	for _, r := range results {
		var kind, before, after string

		switch {
		case r.Original == nil:
			kind = "added"
			added++
		case r.Modified == nil:
			kind = "removed"
			removed++
		default:
			kind = "changed"
			changed++
		}

		if r.Original != nil {
			before = r.Original.Path()
		}

		if r.Modified != nil {
			after = r.Modified.Path()
		}

		table.Append([]string{kind, before, after, formatStacks(r.Stacks)})
	}

	table.SetFooter([]string{
		pipeline,
		fmt.Sprintf("%d added", added),
		fmt.Sprintf("%d changed", changed),
		fmt.Sprintf("%d removed", removed),
	})

	table.Render()

	return buf.String()
}

func renderStatsTable(stats *m.RunStats) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Recipe", "Calls", "Cumulative", "Max"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
	})

	appendStats(table, stats, 0)
	table.Render()

	return buf.String()
}

func appendStats(table *tablewriter.Table, stats *m.RunStats, depth int) {
	table.Append([]string{
		strings.Repeat("  ", depth) + stats.Recipe.Name(),
		fmt.Sprintf("%d", stats.Calls),
		stats.Cumulative.Round(time.Microsecond).String(),
		stats.Max.Round(time.Microsecond).String(),
	})

	for _, child := range stats.Called {
		appendStats(table, child, depth+1)
	}
}

// formatStacks renders attribution stacks as root>child chains.
func formatStacks(stacks []m.RecipeStack) string {
	chains := make([]string, 0, len(stacks))
	for _, stack := range stacks {
		chains = append(chains, strings.Join(stack.Names(), ">"))
	}

	return strings.Join(chains, ", ")
}

// DisplayRecipeTypes prints the available declarative recipe types.
func (s *SimpleUI) DisplayRecipeTypes(ctx context.Context, types []string) {
	if err := ctx.Err(); err != nil {
		return
	}

	for _, t := range types {
		s.printf("%s\n", t)
	}
}

// DisplayReport prints a saved run report.
func (s *SimpleUI) DisplayReport(ctx context.Context, report adapter.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Run %s (%s), started %s, took %s\n",
		report.ID, report.Pipeline,
		report.StartedAt.Format(time.RFC3339), report.Elapsed.Round(time.Millisecond))

	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Kind", "Before", "After", "Recipes"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)

	for _, entry := range report.Results {
		chains := make([]string, 0, len(entry.Recipes))
		for _, names := range entry.Recipes {
			chains = append(chains, strings.Join(names, ">"))
		}

		table.Append([]string{string(entry.Kind), entry.Before, entry.After, strings.Join(chains, ", ")})
	}

	table.Render()
	s.printf("%s", buf.String())

	if s.showDiffs {
		for _, entry := range report.Results {
			if entry.Diff != "" {
				s.printf("\n%s", entry.Diff)
			}
		}
	}

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
