// Package adapter contains the filesystem, persistence and cache adapters
// backing the reshape CLI. The domain layer never touches the disk directly.
package adapter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	m "reshape.dev/pkg/reshape/internal/model"
)

// SourceStore loads a project's files into source batches and writes run
// results back to disk.
type SourceStore interface {
	// LoadSources reads every regular file under root into a source batch,
	// skipping paths matching any exclude glob. Paths in the batch are
	// slash-separated and relative to root.
	LoadSources(root string, excludes []string) ([]m.SourceFile, error)

	// ApplyResults writes a run's results back under root: added and changed
	// files are (re)written, removed files and old paths of renames are
	// deleted.
	ApplyResults(root string, results []m.Result) error
}

// LocalSourceStore is the os-backed SourceStore.
type LocalSourceStore struct{}

// NewLocalSourceStore constructs a LocalSourceStore ready to be wired into
// the run command.
func NewLocalSourceStore() *LocalSourceStore {
	return &LocalSourceStore{}
}

// Directories never worth scanning for sources.
var skippedDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
}

// LoadSources implements SourceStore.
func (s *LocalSourceStore) LoadSources(root string, excludes []string) ([]m.SourceFile, error) {
	var batch []m.SourceFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		if excluded(rel, excludes) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		batch = append(batch, m.NewPlainText(rel, string(content)))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	sort.Slice(batch, func(i, j int) bool { return batch[i].Path() < batch[j].Path() })

	return batch, nil
}

// ApplyResults implements SourceStore.
func (s *LocalSourceStore) ApplyResults(root string, results []m.Result) error {
	for _, r := range results {
		switch {
		case r.Modified == nil:
			if err := removeFile(root, r.Original.Path()); err != nil {
				return err
			}
		case r.Original == nil:
			if err := writeFile(root, r.Modified); err != nil {
				return err
			}
		default:
			if err := writeFile(root, r.Modified); err != nil {
				return err
			}

			// A rename leaves the old path behind; clean it up.
			if r.Original.Path() != r.Modified.Path() {
				if err := removeFile(root, r.Original.Path()); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func writeFile(root string, f m.SourceFile) error {
	target := filepath.Join(root, filepath.FromSlash(f.Path()))

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("apply %s: %w", f.Path(), err)
	}

	if err := os.WriteFile(target, []byte(m.PrintString(f)), 0o600); err != nil {
		return fmt.Errorf("apply %s: %w", f.Path(), err)
	}

	return nil
}

func removeFile(root, path string) error {
	target := filepath.Join(root, filepath.FromSlash(path))

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	return nil
}

func excluded(rel string, excludes []string) bool {
	for _, glob := range excludes {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}

	return false
}
