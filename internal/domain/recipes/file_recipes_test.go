package recipes

import (
	"testing"

	"github.com/stretchr/testify/require"
	m "reshape.dev/pkg/reshape/internal/model"
)

func TestCreateFile_AddsGeneratedFileOnce(t *testing.T) {
	recipe := &CreateFile{Path: "LICENSE", Content: "MIT\n"}
	ctx := m.NewExecutionContext()

	before := []m.SourceFile{m.NewPlainText("main.go", "package main")}

	after, err := recipe.VisitAll(before, ctx)
	require.NoError(t, err)
	require.Len(t, after, 2)
	require.Equal(t, "LICENSE", after[1].Path())
	require.Equal(t, "MIT\n", m.PrintString(after[1]))

	_, generated := m.FindByType[m.Generated](after[1].Markers())
	require.True(t, generated)

	// A second pass finds the file and returns the input batch untouched.
	again, err := recipe.VisitAll(after, ctx)
	require.NoError(t, err)
	require.Len(t, again, 2)
	require.True(t, again[0] == after[0] && again[1] == after[1])
}

func TestCreateFile_ValidationRequiresPath(t *testing.T) {
	v := (&CreateFile{}).Validate(m.NewExecutionContext())
	require.False(t, v.Valid)
}

func TestRenameFile_MovesMatchingPathOnly(t *testing.T) {
	recipe := &RenameFile{From: "old.txt", To: "new.txt"}
	ctx := m.NewExecutionContext()

	match := m.NewPlainText("old.txt", "content")
	out, err := recipe.Visitor().Visit(match, ctx)
	require.NoError(t, err)
	require.Equal(t, "new.txt", out.Path())
	require.Equal(t, match.ID(), out.ID())

	other := m.NewPlainText("other.txt", "content")
	out, err = recipe.Visitor().Visit(other, ctx)
	require.NoError(t, err)
	require.Same(t, other, out.(*m.PlainText))
}

func TestRenameFile_Validation(t *testing.T) {
	v := (&RenameFile{From: "a"}).Validate(m.NewExecutionContext())
	require.False(t, v.Valid)
	require.Len(t, v.Problems, 1)

	v = (&RenameFile{}).Validate(m.NewExecutionContext())
	require.Len(t, v.Problems, 2)
}

func TestDeleteFile_RemovesMatchesByVisitingToAbsence(t *testing.T) {
	recipe := &DeleteFile{FileGlob: "**/*.bak"}
	ctx := m.NewExecutionContext()

	doomed := m.NewPlainText("backup/data.bak", "old")
	out, err := recipe.Visitor().Visit(doomed, ctx)
	require.NoError(t, err)
	require.Nil(t, out)

	spared := m.NewPlainText("backup/data.txt", "keep")
	out, err = recipe.Visitor().Visit(spared, ctx)
	require.NoError(t, err)
	require.Same(t, spared, out.(*m.PlainText))
}

func TestDeleteFile_ValidationRequiresGlob(t *testing.T) {
	v := (&DeleteFile{}).Validate(m.NewExecutionContext())
	require.False(t, v.Valid)
}
