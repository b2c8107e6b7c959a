package controller

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"reshape.dev/pkg/reshape/internal/adapter"
	m "reshape.dev/pkg/reshape/internal/model"
)

type stubRecipe struct {
	m.BaseRecipe

	name string
}

func (r *stubRecipe) Name() string { return r.name }

func newTestUI(t *testing.T) (*SimpleUI, func() string) {
	t.Helper()

	cmd := &cobra.Command{}
	out := new(bytes.Buffer)
	cmd.SetOut(out)

	return NewSimpleUI(cmd), out.String
}

func TestSimpleUI_DisplayResultsTable(t *testing.T) {
	ui, output := newTestUI(t)
	ctx := context.Background()

	require.NoError(t, ui.Start(ctx))

	root := &stubRecipe{name: "cleanup"}
	child := &stubRecipe{name: "text.findAndReplace"}
	stack := m.RecipeStack{root}.Push(child)

	original := m.NewPlainText("a.txt", "before\n")
	results := []m.Result{
		{Original: original, Modified: original.WithText("after\n"), Stacks: []m.RecipeStack{stack}},
		{Modified: m.NewPlainText("new.txt", "")},
		{Original: m.NewPlainText("gone.txt", "")},
	}

	stats := m.NewRunStats(root)
	stats.Calls = 2

	require.NoError(t, ui.DisplayResults(ctx, "cleanup", results, stats))

	got := output()
	require.Contains(t, got, "a.txt")
	require.Contains(t, got, "cleanup>text.findAndReplace")
	require.Contains(t, got, "1 added")
	require.Contains(t, got, "1 changed")
	require.Contains(t, got, "1 removed")
	require.NotContains(t, got, "-before", "diffs are off by default")
}

func TestSimpleUI_DisplayResultsWithDiffs(t *testing.T) {
	ui, output := newTestUI(t)
	ctx := context.Background()

	require.NoError(t, ui.Start(ctx, WithDiffs()))

	original := m.NewPlainText("a.txt", "before\n")
	results := []m.Result{{Original: original, Modified: original.WithText("after\n")}}

	require.NoError(t, ui.DisplayResults(ctx, "p", results, nil))

	got := output()
	require.Contains(t, got, "-before")
	require.Contains(t, got, "+after")
}

func TestSimpleUI_NoChanges(t *testing.T) {
	ui, output := newTestUI(t)
	ctx := context.Background()

	require.NoError(t, ui.DisplayResults(ctx, "cleanup", nil, nil))
	require.Contains(t, output(), "no changes")
}

func TestSimpleUI_DisplayRecipeTypes(t *testing.T) {
	ui, output := newTestUI(t)

	ui.DisplayRecipeTypes(context.Background(), []string{"file.create", "file.delete"})

	require.Contains(t, output(), "file.create\n")
	require.Contains(t, output(), "file.delete\n")
}

func TestSimpleUI_DisplayReport(t *testing.T) {
	ui, output := newTestUI(t)
	ctx := context.Background()

	report := adapter.RunReport{
		ID:        "01J0TESTULID",
		Pipeline:  "cleanup",
		StartedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Elapsed:   1500 * time.Millisecond,
		Results: []adapter.ResultEntry{
			{Kind: adapter.ResultChanged, Before: "a.txt", After: "a.txt", Recipes: [][]string{{"cleanup"}}},
		},
	}

	require.NoError(t, ui.DisplayReport(ctx, report))

	got := output()
	require.Contains(t, got, "01J0TESTULID")
	require.Contains(t, got, "cleanup")
	require.Contains(t, got, "a.txt")
}

func TestSimpleUI_ObserverCallbacks(t *testing.T) {
	ui, output := newTestUI(t)

	ui.CycleStarted(1, 12)
	ui.RecipeFinished("text.findAndReplace", 25*time.Millisecond)

	got := output()
	require.Contains(t, got, "Cycle 1")
	require.Contains(t, got, "12 file(s)")
	require.Contains(t, got, "text.findAndReplace finished")
}

func TestSimpleUI_CancelledContext(t *testing.T) {
	ui, output := newTestUI(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, ui.Start(ctx))
	require.Error(t, ui.DisplayResults(ctx, "p", nil, nil))
	require.Empty(t, output())
}
