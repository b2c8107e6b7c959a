package domain

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	m "reshape.dev/pkg/reshape/internal/model"
)

// diffBatches compares the original batch to the final batch by id and
// classifies every difference as Added, Changed or Removed with the recipe
// stacks responsible. Neither batch is mutated.
func diffBatches(before, after []m.SourceFile, attr *attributions, ctx *m.ExecutionContext) []m.Result {
	identities := make(map[uuid.UUID]m.SourceFile, len(before))
	for _, f := range before {
		identities[f.ID()] = f
	}

	var results []m.Result

	for _, f := range after {
		original, ok := identities[f.ID()]
		if !ok {
			results = append(results, m.Result{
				Modified: f,
				Stacks:   []m.RecipeStack{attr.lookup(f.ID())},
			})

			continue
		}

		if f == original {
			continue
		}

		// Synthetic files never surface as Changed.
		if _, generated := m.FindByType[m.Generated](original.Markers()); generated {
			continue
		}

		// A path change alone is a change; otherwise compare the canonical
		// marker-stripped renderings so bookkeeping markers by themselves
		// do not constitute one.
		if original.Path() == f.Path() && canonicalDigest(original) == canonicalDigest(f) {
			continue
		}

		changedBy, ok := m.FindByType[m.ChangedBy](f.Markers())
		if !ok {
			// A changed file with no attribution marker is a recipe bug;
			// report it through the sink rather than failing the run.
			ctx.ReportError(fmt.Errorf("source file %s changed but no recipe reported making a change", f.Path()))

			results = append(results, m.Result{Original: original, Modified: f})

			continue
		}

		results = append(results, m.Result{Original: original, Modified: f, Stacks: changedBy.Stacks})
	}

	afterIDs := make(map[uuid.UUID]bool, len(after))
	for _, f := range after {
		afterIDs[f.ID()] = true
	}

	for _, f := range before {
		if afterIDs[f.ID()] {
			continue
		}

		if _, generated := m.FindByType[m.Generated](f.Markers()); generated {
			continue
		}

		results = append(results, m.Result{
			Original: f,
			Stacks:   []m.RecipeStack{attr.lookup(f.ID())},
		})
	}

	return results
}

// canonicalDigest hashes a file's canonical rendering. Markers never print,
// so marker-only differences hash identically.
func canonicalDigest(f m.SourceFile) [32]byte {
	var b bytes.Buffer

	_ = f.Print(&b)

	return blake3.Sum256(b.Bytes())
}
