package domain

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	m "reshape.dev/pkg/reshape/internal/model"
)

// handleUncaught routes a failure that escaped a recipe-scope step
// (applicability evaluation, validation or the whole-batch transform). It
// reports the failure, sets the terminal panic message, and either marks
// every file with a diagnostic (when the failure has a locatable origin) or
// appends a diagnostic pseudo-file describing it.
func handleUncaught(stack m.RecipeStack, attr *attributions, before []m.SourceFile, ctx *m.ExecutionContext, recipe m.Recipe, err error) []m.SourceFile {
	slog.Error("uncaught recipe failure", "recipe", recipe.Name(), "error", err)

	ctx.ReportError(err)
	ctx.PutMessage(m.PanicMessage, true)

	var runErr *m.RunError
	if errors.As(err, &runErr) && runErr.OriginID != uuid.Nil {
		mapped := make([]m.SourceFile, len(before))
		changed := false

		for i, f := range before {
			marked := markFailure(f, recipe, err)
			if marked != f {
				marked = addChangedBy(stack, marked)
				changed = true
			}

			mapped[i] = marked
		}

		if changed {
			return mapped
		}
	}

	// No origin to hang the diagnostic on: synthesize a pseudo-file named
	// deterministically from the uncaught-failure counter.
	n := ctx.IncrementAndGetUncaughtFailureCount()

	diag := m.NewPlainText(
		fmt.Sprintf("recipe-failure-%d.txt", n),
		fmt.Sprintf("reshape encountered an uncaught recipe failure in %s.\n", recipe.Name()),
	).WithMarkers(m.Markers{}.With(m.Diagnostic{
		ID:      uuid.New(),
		Recipe:  recipe.Name(),
		Message: err.Error(),
	}))

	attr.record(diag.ID(), stack)

	out := make([]m.SourceFile, 0, len(before)+1)
	out = append(out, before...)

	return append(out, diag)
}
