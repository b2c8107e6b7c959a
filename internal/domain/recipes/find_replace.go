package recipes

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	m "reshape.dev/pkg/reshape/internal/model"
)

// FindReplace replaces every occurrence of Find with Replace in plain-text
// files, optionally restricted to paths matching FileGlob.
type FindReplace struct {
	m.BaseRecipe

	Find     string
	Replace  string
	FileGlob string
}

// Name implements Recipe.
func (r *FindReplace) Name() string { return "text.findAndReplace" }

// Description implements Recipe.
func (r *FindReplace) Description() string {
	return "Replace every occurrence of a literal string in matching files."
}

// Validate implements Recipe.
func (r *FindReplace) Validate(_ *m.ExecutionContext) m.ValidationResult {
	if r.Find == "" {
		return m.ValidationInvalid("find must not be empty")
	}

	return m.ValidationOK()
}

// SingleSourceApplicabilityTests implements Recipe: only files containing
// the needle are visited.
func (r *FindReplace) SingleSourceApplicabilityTests() []m.Visitor {
	return []m.Visitor{Contains(r.Find)}
}

// Visitor implements Recipe.
func (r *FindReplace) Visitor() m.Visitor {
	return m.VisitorFunc(func(file m.SourceFile, _ *m.ExecutionContext) (m.SourceFile, error) {
		if !pathMatches(r.FileGlob, file.Path()) {
			return file, nil
		}

		pt, ok := file.(*m.PlainText)
		if !ok {
			return file, nil
		}

		out := pt.WithText(strings.ReplaceAll(pt.Text(), r.Find, r.Replace))

		if snippets := replaceInSnippets(pt.Snippets(), r.Find, r.Replace); snippets != nil {
			out = out.WithSnippets(snippets)
		}

		return out, nil
	})
}

// replaceInSnippets returns a new snippet slice with replacements applied,
// or nil when no snippet changed.
func replaceInSnippets(snippets []*m.TextSnippet, find, replace string) []*m.TextSnippet {
	var out []*m.TextSnippet

	for i, s := range snippets {
		replaced := s.WithText(strings.ReplaceAll(s.Text(), find, replace))
		if replaced == s {
			continue
		}

		if out == nil {
			out = make([]*m.TextSnippet, len(snippets))
			copy(out, snippets)
		}

		out[i] = replaced
	}

	return out
}

// Contains builds an applicability test that triggers on files whose
// canonical rendering contains substr.
func Contains(substr string) m.Visitor {
	return m.VisitorFunc(func(file m.SourceFile, _ *m.ExecutionContext) (m.SourceFile, error) {
		if !strings.Contains(m.PrintString(file), substr) {
			return file, nil
		}

		return file.WithMarkers(file.Markers().With(m.SearchResult{
			ID:          uuid.New(),
			Description: "contains " + substr,
		})), nil
	})
}

// pathMatches applies a doublestar glob; an empty glob matches everything.
func pathMatches(glob, path string) bool {
	if glob == "" {
		return true
	}

	ok, err := doublestar.Match(glob, path)

	return err == nil && ok
}
