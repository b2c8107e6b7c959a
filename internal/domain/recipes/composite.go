// Package recipes holds the built-in recipes shipped with reshape, one file
// per transformation.
package recipes

import (
	m "reshape.dev/pkg/reshape/internal/model"
)

// Composite is a recipe with no behavior of its own that runs its children
// in order. Declarative pipelines materialize into a Composite root.
type Composite struct {
	m.BaseRecipe

	PipelineName string
	Desc         string
	Children     []m.Recipe
}

// Name implements Recipe.
func (c *Composite) Name() string { return c.PipelineName }

// Description implements Recipe.
func (c *Composite) Description() string { return c.Desc }

// Recipes implements Recipe.
func (c *Composite) Recipes() []m.Recipe { return c.Children }

// CausesAnotherCycle reports true when any child wants another cycle.
func (c *Composite) CausesAnotherCycle() bool {
	for _, child := range c.Children {
		if child.CausesAnotherCycle() {
			return true
		}
	}

	return false
}

// WithChildren wraps a recipe so it runs the given children after itself,
// leaving the wrapped recipe untouched.
func WithChildren(r m.Recipe, children []m.Recipe) m.Recipe {
	if len(children) == 0 {
		return r
	}

	return &parentedRecipe{Recipe: r, children: children}
}

type parentedRecipe struct {
	m.Recipe

	children []m.Recipe
}

func (p *parentedRecipe) Recipes() []m.Recipe {
	return append(append([]m.Recipe{}, p.Recipe.Recipes()...), p.children...)
}
