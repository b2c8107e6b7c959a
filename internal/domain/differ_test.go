package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	m "reshape.dev/pkg/reshape/internal/model"
)

func singleStack(name string) m.RecipeStack {
	return m.RecipeStack{&testRecipe{name: name}}
}

func withChange(f m.SourceFile, stack m.RecipeStack) m.SourceFile {
	return addChangedBy(stack, f)
}

func TestDiffBatches_PathChangeAloneIsChanged(t *testing.T) {
	original := m.NewPlainText("old.txt", "same content")
	moved := withChange(original.WithPath("new.txt"), singleStack("mover"))

	results := diffBatches(
		[]m.SourceFile{original},
		[]m.SourceFile{moved},
		newAttributions(),
		m.NewExecutionContext(),
	)

	require.Len(t, results, 1)
	require.Equal(t, "old.txt", results[0].Original.Path())
	require.Equal(t, "new.txt", results[0].Modified.Path())
	require.Equal(t, "mover", results[0].Stacks[0].Top().Name())
}

func TestDiffBatches_MarkerOnlyChangeIsInvisible(t *testing.T) {
	original := m.NewPlainText("a.txt", "content")
	marked := withChange(original, singleStack("marker-only"))

	results := diffBatches(
		[]m.SourceFile{original},
		[]m.SourceFile{marked},
		newAttributions(),
		m.NewExecutionContext(),
	)

	require.Empty(t, results, "markers never print, so the canonical renderings match")
}

func TestDiffBatches_GeneratedOriginalsNeverSurfaceAsChanged(t *testing.T) {
	generated := m.NewPlainText("gen.txt", "v1").
		WithMarkers(m.Markers{}.With(m.Generated{ID: uuid.New()})).(*m.PlainText)
	edited := withChange(generated.WithText("v2"), singleStack("editor"))

	results := diffBatches(
		[]m.SourceFile{generated},
		[]m.SourceFile{edited},
		newAttributions(),
		m.NewExecutionContext(),
	)

	require.Empty(t, results)
}

func TestDiffBatches_GeneratedRemovalIsInvisible(t *testing.T) {
	generated := m.NewPlainText("gen.txt", "v1").
		WithMarkers(m.Markers{}.With(m.Generated{ID: uuid.New()}))

	results := diffBatches(
		[]m.SourceFile{generated},
		nil,
		newAttributions(),
		m.NewExecutionContext(),
	)

	require.Empty(t, results)
}

func TestDiffBatches_MissingAttributionIsReportedNotFatal(t *testing.T) {
	var reported []error

	ctx := m.NewExecutionContext(m.WithOnError(func(err error) { reported = append(reported, err) }))

	original := m.NewPlainText("a.txt", "before")
	// Changed content but no attribution marker attached.
	edited := original.WithText("after")

	results := diffBatches(
		[]m.SourceFile{original},
		[]m.SourceFile{edited},
		newAttributions(),
		ctx,
	)

	require.Len(t, results, 1)
	require.Empty(t, results[0].Stacks)
	require.NotEmpty(t, reported)
}

func TestDiffBatches_IdenticalReferenceSkipsComparison(t *testing.T) {
	file := m.NewPlainText("a.txt", "content")

	results := diffBatches(
		[]m.SourceFile{file},
		[]m.SourceFile{file},
		newAttributions(),
		m.NewExecutionContext(),
	)

	require.Empty(t, results)
}

func TestDiffBatches_AddedAndRemoved(t *testing.T) {
	attr := newAttributions()

	kept := m.NewPlainText("kept.txt", "stays")
	removed := m.NewPlainText("removed.txt", "goes")
	added := m.NewPlainText("added.txt", "new")

	attr.record(removed.ID(), singleStack("deleter"))
	attr.record(added.ID(), singleStack("creator"))

	results := diffBatches(
		[]m.SourceFile{kept, removed},
		[]m.SourceFile{kept, added},
		attr,
		m.NewExecutionContext(),
	)

	require.Len(t, results, 2)

	byPath := map[string]m.Result{}
	for _, r := range results {
		if r.Modified != nil {
			byPath[r.Modified.Path()] = r
		} else {
			byPath[r.Original.Path()] = r
		}
	}

	require.Nil(t, byPath["added.txt"].Original)
	require.Equal(t, "creator", byPath["added.txt"].Stacks[0].Top().Name())

	require.Nil(t, byPath["removed.txt"].Modified)
	require.Equal(t, "deleter", byPath["removed.txt"].Stacks[0].Top().Name())
}
