package recipes

import (
	"github.com/google/uuid"
	m "reshape.dev/pkg/reshape/internal/model"
)

// CreateFile adds a new generated file to the batch unless a file with the
// same path already exists. Addition happens in the whole-batch transform.
type CreateFile struct {
	m.BaseRecipe

	Path    string
	Content string
}

// Name implements Recipe.
func (r *CreateFile) Name() string { return "file.create" }

// Description implements Recipe.
func (r *CreateFile) Description() string {
	return "Create a file with fixed content when it does not exist yet."
}

// Validate implements Recipe.
func (r *CreateFile) Validate(_ *m.ExecutionContext) m.ValidationResult {
	if r.Path == "" {
		return m.ValidationInvalid("path must not be empty")
	}

	return m.ValidationOK()
}

// VisitAll implements Recipe.
func (r *CreateFile) VisitAll(before []m.SourceFile, _ *m.ExecutionContext) ([]m.SourceFile, error) {
	for _, f := range before {
		if f.Path() == r.Path {
			return before, nil
		}
	}

	created := m.NewPlainText(r.Path, r.Content).
		WithMarkers(m.Markers{}.With(m.Generated{ID: uuid.New()}))

	out := make([]m.SourceFile, 0, len(before)+1)
	out = append(out, before...)

	return append(out, created), nil
}

// RenameFile moves a file from one path to another. The content is
// untouched; a path change alone classifies the result as Changed.
type RenameFile struct {
	m.BaseRecipe

	From string
	To   string
}

// Name implements Recipe.
func (r *RenameFile) Name() string { return "file.rename" }

// Description implements Recipe.
func (r *RenameFile) Description() string { return "Move a file to a new path." }

// Validate implements Recipe.
func (r *RenameFile) Validate(_ *m.ExecutionContext) m.ValidationResult {
	var problems []string

	if r.From == "" {
		problems = append(problems, "from must not be empty")
	}

	if r.To == "" {
		problems = append(problems, "to must not be empty")
	}

	if len(problems) > 0 {
		return m.ValidationInvalid(problems...)
	}

	return m.ValidationOK()
}

// Visitor implements Recipe.
func (r *RenameFile) Visitor() m.Visitor {
	return m.VisitorFunc(func(file m.SourceFile, _ *m.ExecutionContext) (m.SourceFile, error) {
		if file.Path() != r.From {
			return file, nil
		}

		return file.WithPath(r.To), nil
	})
}

// DeleteFile removes files whose path matches a doublestar glob by visiting
// them to absence.
type DeleteFile struct {
	m.BaseRecipe

	FileGlob string
}

// Name implements Recipe.
func (r *DeleteFile) Name() string { return "file.delete" }

// Description implements Recipe.
func (r *DeleteFile) Description() string { return "Delete files matching a path glob." }

// Validate implements Recipe.
func (r *DeleteFile) Validate(_ *m.ExecutionContext) m.ValidationResult {
	if r.FileGlob == "" {
		return m.ValidationInvalid("glob must not be empty")
	}

	return m.ValidationOK()
}

// Visitor implements Recipe.
func (r *DeleteFile) Visitor() m.Visitor {
	return m.VisitorFunc(func(file m.SourceFile, _ *m.ExecutionContext) (m.SourceFile, error) {
		if pathMatches(r.FileGlob, file.Path()) {
			return nil, nil
		}

		return file, nil
	})
}
