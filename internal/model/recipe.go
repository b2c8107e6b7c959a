package model

// Visitor is a pure transformation from one source file to a possibly
// different file. Returning the input unchanged (same reference) means
// "no change"; returning nil means the file is deleted.
type Visitor interface {
	Visit(file SourceFile, ctx *ExecutionContext) (SourceFile, error)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(file SourceFile, ctx *ExecutionContext) (SourceFile, error)

// Visit implements Visitor.
func (f VisitorFunc) Visit(file SourceFile, ctx *ExecutionContext) (SourceFile, error) {
	return f(file, ctx)
}

// Noop returns a visitor that leaves every file untouched.
func Noop() Visitor {
	return VisitorFunc(func(file SourceFile, _ *ExecutionContext) (SourceFile, error) {
		return file, nil
	})
}

// ValidationResult reports whether a recipe's configuration is usable.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// ValidationOK is the result of a successful validation.
func ValidationOK() ValidationResult { return ValidationResult{Valid: true} }

// ValidationInvalid reports the given configuration problems.
func ValidationInvalid(problems ...string) ValidationResult {
	return ValidationResult{Problems: problems}
}

// Recipe is a node in a tree of transformations. The scheduler consumes
// recipes purely through this contract.
type Recipe interface {
	// Name is the stable identifier used for attribution and reporting.
	Name() string
	// Description is display metadata; scheduling never reads it.
	Description() string

	// Visitor returns the per-file visiting operation.
	Visitor() Visitor

	// ApplicabilityTests gate the whole recipe subtree: unless at least one
	// test triggers (returns a non-identical value) on at least one file in
	// the batch, the recipe and its children are skipped for the cycle.
	ApplicabilityTests() []Visitor

	// SingleSourceApplicabilityTests gate individual files: every test must
	// trigger on a file for that file to be visited.
	SingleSourceApplicabilityTests() []Visitor

	// Recipes returns the ordered child recipes.
	Recipes() []Recipe

	// Validate checks the recipe's configuration. An invalid recipe skips
	// its own visiting step but its children still run.
	Validate(ctx *ExecutionContext) ValidationResult

	// CausesAnotherCycle reports whether a pass of this recipe should
	// trigger another cycle, up to the run's maxCycles bound.
	CausesAnotherCycle() bool

	// VisitAll is the whole-batch transform, permitted to add or remove
	// files. Implementations must return the input slice unchanged when
	// they make no edits.
	VisitAll(before []SourceFile, ctx *ExecutionContext) ([]SourceFile, error)
}

// RecipeStack is the path of recipes from the run root down to the recipe
// active when an effect occurred. It is used purely for attribution.
type RecipeStack []Recipe

// Push returns a new stack extended with r.
func (s RecipeStack) Push(r Recipe) RecipeStack {
	out := make(RecipeStack, len(s), len(s)+1)
	copy(out, s)

	return append(out, r)
}

// Top returns the currently executing recipe.
func (s RecipeStack) Top() Recipe { return s[len(s)-1] }

// Names returns the stack's recipe names, root first.
func (s RecipeStack) Names() []string {
	names := make([]string, len(s))
	for i, r := range s {
		names[i] = r.Name()
	}

	return names
}

// BaseRecipe provides default implementations for everything but Name, so
// concrete recipes only declare what they override.
type BaseRecipe struct{}

// Description implements Recipe.
func (BaseRecipe) Description() string { return "" }

// Visitor implements Recipe.
func (BaseRecipe) Visitor() Visitor { return Noop() }

// ApplicabilityTests implements Recipe.
func (BaseRecipe) ApplicabilityTests() []Visitor { return nil }

// SingleSourceApplicabilityTests implements Recipe.
func (BaseRecipe) SingleSourceApplicabilityTests() []Visitor { return nil }

// Recipes implements Recipe.
func (BaseRecipe) Recipes() []Recipe { return nil }

// Validate implements Recipe.
func (BaseRecipe) Validate(_ *ExecutionContext) ValidationResult { return ValidationOK() }

// CausesAnotherCycle implements Recipe.
func (BaseRecipe) CausesAnotherCycle() bool { return false }

// VisitAll implements Recipe.
func (BaseRecipe) VisitAll(before []SourceFile, _ *ExecutionContext) ([]SourceFile, error) {
	return before, nil
}
