package model

import "github.com/pmezard/go-difflib/difflib"

// Result describes one file-level outcome of a run: Original nil means the
// file was added, Modified nil means it was removed, both present means it
// changed. Stacks lists every recipe stack that contributed.
type Result struct {
	Original SourceFile
	Modified SourceFile
	Stacks   []RecipeStack
}

// Diff renders a unified diff between the original and modified renderings.
func (r Result) Diff() string {
	var beforeText, afterText, beforePath, afterPath string

	if r.Original != nil {
		beforeText = PrintString(r.Original)
		beforePath = r.Original.Path()
	}

	if r.Modified != nil {
		afterText = PrintString(r.Modified)
		afterPath = r.Modified.Path()
	}

	if beforePath == "" {
		beforePath = afterPath
	}

	if afterPath == "" {
		afterPath = beforePath
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(beforeText),
		B:        difflib.SplitLines(afterText),
		FromFile: beforePath,
		ToFile:   afterPath,
		Context:  3,
	})
	if err != nil {
		return ""
	}

	return diff
}

// RecipeRun is the outcome of one Scheduler.Run call.
type RecipeRun struct {
	Stats   *RunStats
	Results []Result
}
