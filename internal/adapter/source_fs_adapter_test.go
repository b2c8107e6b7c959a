package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	m "reshape.dev/pkg/reshape/internal/model"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for path, content := range files {
		target := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o750))
		require.NoError(t, os.WriteFile(target, []byte(content), 0o600))
	}
}

func TestLoadSources_SortedRelativeSlashPaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.txt":       "bee",
		"sub/a.txt":   "aye",
		".git/config": "noise",
	})

	batch, err := NewLocalSourceStore().LoadSources(root, nil)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	require.Equal(t, "b.txt", batch[0].Path())
	require.Equal(t, "sub/a.txt", batch[1].Path())
	require.Equal(t, "aye", m.PrintString(batch[1]))
}

func TestLoadSources_ExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.go":        "package keep",
		"skip/notes.md":  "skip me",
		"deep/more.tmp":  "skip me too",
		"deep/keep.yaml": "stay",
	})

	batch, err := NewLocalSourceStore().LoadSources(root, []string{"skip/**", "**/*.tmp"})
	require.NoError(t, err)

	var paths []string
	for _, f := range batch {
		paths = append(paths, f.Path())
	}

	require.ElementsMatch(t, []string{"keep.go", "deep/keep.yaml"}, paths)
}

func TestApplyResults_WritesChangesAndHandlesRenames(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"old.txt":    "before",
		"doomed.txt": "bye",
	})

	original := m.NewPlainText("old.txt", "before")
	renamed := original.WithPath("renamed/new.txt").(*m.PlainText).WithText("after")

	doomed := m.NewPlainText("doomed.txt", "bye")
	added := m.NewPlainText("fresh.txt", "hello")

	results := []m.Result{
		{Original: original, Modified: renamed},
		{Original: doomed},
		{Modified: added},
	}

	require.NoError(t, NewLocalSourceStore().ApplyResults(root, results))

	content, err := os.ReadFile(filepath.Join(root, "renamed", "new.txt"))
	require.NoError(t, err)
	require.Equal(t, "after", string(content))

	_, err = os.Stat(filepath.Join(root, "old.txt"))
	require.True(t, os.IsNotExist(err), "rename removes the old path")

	_, err = os.Stat(filepath.Join(root, "doomed.txt"))
	require.True(t, os.IsNotExist(err))

	content, err = os.ReadFile(filepath.Join(root, "fresh.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))
}

func TestApplyResults_RemoveMissingFileIsNotFatal(t *testing.T) {
	root := t.TempDir()

	results := []m.Result{{Original: m.NewPlainText("never-existed.txt", "")}}

	require.NoError(t, NewLocalSourceStore().ApplyResults(root, results))
}
