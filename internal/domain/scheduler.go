// Package domain contains the recipe scheduling engine: the cycle driver,
// recipe-tree application, failure routing and result diffing.
package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	m "reshape.dev/pkg/reshape/internal/model"
)

// Observer receives progress notifications from a running scheduler. All
// callbacks happen on the goroutine driving the run.
type Observer interface {
	CycleStarted(cycle, files int)
	RecipeFinished(name string, took time.Duration)
}

// Scheduler orchestrates recipe runs: bounded cycles, recipe-tree recursion,
// parallel per-file application, failure isolation and stats collection.
type Scheduler struct {
	threads  int
	observer Observer
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithObserver installs a progress observer.
func WithObserver(o Observer) SchedulerOption {
	return func(s *Scheduler) { s.observer = o }
}

// NewScheduler builds a scheduler whose per-file visiting step runs on at
// most threads workers. threads < 1 means unbounded.
func NewScheduler(threads int, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{threads: threads}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run applies the recipe tree rooted at recipe to before, iterating until a
// fixed point (no reference change and no new context messages) once
// minCycles is satisfied, or until maxCycles is exhausted. No failure ever
// escapes Run; every failure path ends in results or inline diagnostics.
func (s *Scheduler) Run(recipe m.Recipe, before []m.SourceFile, ctx *m.ExecutionContext, maxCycles, minCycles int) m.RecipeRun {
	if maxCycles < 1 {
		maxCycles = 1
	}

	if minCycles < 0 {
		minCycles = 0
	}

	if minCycles > maxCycles {
		minCycles = maxCycles
	}

	before = dedupeIDs(before)

	stats := m.NewRunStats(recipe)
	attr := newAttributions()

	acc := before
	after := acc

	for i := 0; i < maxCycles; i++ {
		if ctx.GetMessage(m.PanicMessage) != nil {
			break
		}

		if s.observer != nil {
			s.observer.CycleStarted(i+1, len(acc))
		}

		slog.Debug("starting cycle", "cycle", i+1, "recipe", recipe.Name(), "files", len(acc))

		after = s.applyRecipeTree(stats, m.RecipeStack{recipe}, acc, ctx, attr)

		if i+1 >= minCycles && ((sameBatch(after, acc) && !ctx.HasNewMessages()) || !recipe.CausesAnotherCycle()) {
			break
		}

		acc = after
		ctx.ResetHasNewMessages()
	}

	run := m.RecipeRun{Stats: stats}

	// Fast path: a run that observed no change produces zero results and
	// never invokes the differ.
	if sameBatch(after, before) {
		return run
	}

	run.Results = diffBatches(before, after, attr, ctx)

	return run
}

// applyRecipeTree applies the recipe on top of stack to before and recurses
// into its children. Batch-level steps run sequentially on the calling
// goroutine; only the per-file visiting step fans out.
func (s *Scheduler) applyRecipeTree(stats *m.RunStats, stack m.RecipeStack, before []m.SourceFile, ctx *m.ExecutionContext, attr *attributions) []m.SourceFile {
	stats.Calls++
	start := time.Now()
	recipe := stack.Top()

	if tests := recipe.ApplicabilityTests(); len(tests) > 0 {
		applicable, err := anyApplicable(tests, before, ctx)
		if err != nil {
			return handleUncaught(stack, attr, before, ctx, recipe, err)
		}

		if !applicable {
			return before
		}
	}

	after := before

	if v := recipe.Validate(ctx); !v.Valid {
		slog.Warn("recipe failed validation; skipping its visitor", "recipe", recipe.Name(), "problems", v.Problems)
	} else {
		var timedOut atomic.Bool

		after = s.mapAsync(before, func(file m.SourceFile) m.SourceFile {
			return visitFile(recipe, stack, file, len(before), ctx, attr, start, &timedOut)
		})
	}

	widened, err := safeVisitAll(recipe, after, ctx)
	if err != nil {
		return handleUncaught(stack, attr, before, ctx, recipe, err)
	}

	if !sameBatch(widened, after) {
		widened = attributeBatchEdits(stack, after, widened, attr)
	}

	for _, child := range recipe.Recipes() {
		if ctx.GetMessage(m.PanicMessage) != nil {
			return widened
		}

		widened = s.applyRecipeTree(stats.Child(child), stack.Push(child), widened, ctx, attr)
	}

	took := time.Since(start)

	stats.Cumulative += took
	if took > stats.Max {
		stats.Max = took
	}

	if s.observer != nil {
		s.observer.RecipeFinished(recipe.Name(), took)
	}

	return widened
}

// visitFile is the unit of per-file parallelism. Failures here are isolated:
// they are reported, marked on the file, and never affect sibling files.
func visitFile(recipe m.Recipe, stack m.RecipeStack, file m.SourceFile, batchSize int, ctx *m.ExecutionContext, attr *attributions, stepStart time.Time, timedOut *atomic.Bool) m.SourceFile {
	for _, test := range recipe.SingleSourceApplicabilityTests() {
		out, err := safeVisit(test, file, ctx)
		if err != nil {
			ctx.ReportError(err)
			return addChangedBy(stack, markFailure(file, recipe, err))
		}

		// A test that returns its input unchanged rejects the file.
		if out == file {
			return file
		}
	}

	if time.Since(stepStart) > ctx.RunTimeout(batchSize) {
		// First file to observe the overrun reports it for the whole step.
		if timedOut.CompareAndSwap(false, true) {
			terr := &m.TimeoutError{Recipe: recipe.Name()}
			ctx.ReportError(terr)
			ctx.ReportTimeout(terr)
		}

		return file
	}

	if ctx.GetMessage(m.PanicMessage) != nil {
		return file
	}

	out, err := safeVisit(recipe.Visitor(), file, ctx)
	if err != nil {
		ctx.ReportError(err)

		base := out
		if base == nil {
			base = file
		}

		out = markFailure(base, recipe, err)
	}

	if out != nil && out != file {
		return addChangedBy(stack, out)
	}

	if out == nil {
		attr.record(file.ID(), stack)
	}

	return out
}

// mapAsync maps fn over in using a bounded worker pool and joins all results
// before returning. It returns the input slice itself when no file changed,
// and drops nil results (deletions) otherwise.
func (s *Scheduler) mapAsync(in []m.SourceFile, fn func(m.SourceFile) m.SourceFile) []m.SourceFile {
	out := make([]m.SourceFile, len(in))

	g := new(errgroup.Group)
	if s.threads > 0 {
		g.SetLimit(s.threads)
	}

	for i, file := range in {
		g.Go(func() error {
			out[i] = fn(file)
			return nil
		})
	}

	_ = g.Wait()

	changed := false

	for i := range in {
		if out[i] != in[i] {
			changed = true
			break
		}
	}

	if !changed {
		return in
	}

	result := make([]m.SourceFile, 0, len(out))

	for _, f := range out {
		if f != nil {
			result = append(result, f)
		}
	}

	return result
}

// anyApplicable reports whether any test triggers (returns a non-identical
// value) on any file of the batch.
func anyApplicable(tests []m.Visitor, batch []m.SourceFile, ctx *m.ExecutionContext) (bool, error) {
	for _, file := range batch {
		for _, test := range tests {
			out, err := safeVisit(test, file, ctx)
			if err != nil {
				return false, err
			}

			if out != file {
				return true, nil
			}
		}
	}

	return false, nil
}

// attributeBatchEdits diffs the whole-batch transform's output against its
// input by id: new ids are recorded as added, identical ids with different
// references get an attribution marker, and vanished ids are recorded as
// deleted.
func attributeBatchEdits(stack m.RecipeStack, after, widened []m.SourceFile, attr *attributions) []m.SourceFile {
	prior := make(map[uuid.UUID]m.SourceFile, len(after))
	for _, f := range after {
		prior[f.ID()] = f
	}

	out := make([]m.SourceFile, 0, len(widened))
	kept := make(map[uuid.UUID]bool, len(widened))

	for _, f := range widened {
		orig, ok := prior[f.ID()]

		switch {
		case !ok:
			attr.record(f.ID(), stack)
		case f != orig:
			f = addChangedBy(stack, f)
		}

		kept[f.ID()] = true

		out = append(out, f)
	}

	for _, f := range after {
		if !kept[f.ID()] {
			attr.record(f.ID(), stack)
		}
	}

	return out
}

// safeVisit applies a visitor, converting panics into errors so one file's
// failure cannot take down the run.
func safeVisit(v m.Visitor, file m.SourceFile, ctx *m.ExecutionContext) (out m.SourceFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("visitor panic: %v", r)
		}
	}()

	return v.Visit(file, ctx)
}

// safeVisitAll applies a recipe's whole-batch transform with panic recovery.
func safeVisitAll(recipe m.Recipe, before []m.SourceFile, ctx *m.ExecutionContext) (out []m.SourceFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("whole-batch transform panic: %v", r)
		}
	}()

	return recipe.VisitAll(before, ctx)
}

// addChangedBy merges an attribution marker naming stack into the file's
// marker set. Merging is additive: a file accumulates one stack per recipe
// that touched it during a cycle.
func addChangedBy(stack m.RecipeStack, file m.SourceFile) m.SourceFile {
	incoming := m.ChangedBy{ID: uuid.New(), Stacks: []m.RecipeStack{stack}}

	return file.WithMarkers(m.ComputeByType(file.Markers(), incoming,
		func(existing, incoming m.ChangedBy) m.ChangedBy {
			existing.Stacks = append(existing.Stacks, incoming.Stacks...)
			return existing
		}))
}

// markFailure attaches a diagnostic marker to the node nearest the
// failure's origin, or to the file as a whole when no origin is known.
func markFailure(file m.SourceFile, recipe m.Recipe, err error) m.SourceFile {
	diag := m.Diagnostic{ID: uuid.New(), Recipe: recipe.Name(), Message: err.Error()}

	var runErr *m.RunError
	if errors.As(err, &runErr) && runErr.OriginID != uuid.Nil {
		return file.MarkNode(runErr.OriginID, diag)
	}

	return file.WithMarkers(m.ComputeByType(file.Markers(), diag,
		func(existing, _ m.Diagnostic) m.Diagnostic { return existing }))
}

// sameBatch reports whether two batches hold the identical file references
// in the same order. This is the engine's fixed-point test.
func sameBatch(a, b []m.SourceFile) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// dedupeIDs reassigns a fresh id to any file whose id collides with an
// earlier file in the initial batch, so ids are unique when scheduling
// begins.
func dedupeIDs(before []m.SourceFile) []m.SourceFile {
	seen := make(map[uuid.UUID]bool, len(before))

	var out []m.SourceFile

	for i, f := range before {
		if !seen[f.ID()] {
			seen[f.ID()] = true

			if out != nil {
				out[i] = f
			}

			continue
		}

		if out == nil {
			out = make([]m.SourceFile, len(before))
			copy(out, before[:i])
		}

		fresh := f.WithID(uuid.New())
		seen[fresh.ID()] = true
		out[i] = fresh
	}

	if out == nil {
		return before
	}

	return out
}
