package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
	"reshape.dev/pkg/reshape/internal/domain/recipes"
)

const validPipeline = `
version: 1
name: cleanup
maxCycles: 3
recipes:
  - type: text.findAndReplace
    options:
      find: foo
      replace: bar
  - type: file.rename
    options:
      from: old.txt
      to: new.txt
    recipes:
      - type: file.delete
        options:
          fileGlob: "**/*.bak"
`

func TestParsePipeline_BuildsRecipeTree(t *testing.T) {
	root, spec, err := ParsePipeline([]byte(validPipeline), DefaultRegistry(), Deps{})
	require.NoError(t, err)

	require.Equal(t, "cleanup", spec.Name)
	require.Equal(t, 3, spec.MaxCycles)
	require.Equal(t, "cleanup", root.Name())

	children := root.Recipes()
	require.Len(t, children, 2)
	require.Equal(t, "text.findAndReplace", children[0].Name())
	require.Equal(t, "file.rename", children[1].Name())

	nested := children[1].Recipes()
	require.Len(t, nested, 1)
	require.Equal(t, "file.delete", nested[0].Name())
}

func TestParsePipeline_NestedChildrenPreserveOptions(t *testing.T) {
	root, _, err := ParsePipeline([]byte(validPipeline), DefaultRegistry(), Deps{})
	require.NoError(t, err)

	fr, ok := root.Recipes()[0].(*recipes.FindReplace)
	require.True(t, ok)
	require.Equal(t, "foo", fr.Find)
	require.Equal(t, "bar", fr.Replace)

	nested, ok := root.Recipes()[1].Recipes()[0].(*recipes.DeleteFile)
	require.True(t, ok)
	require.Equal(t, "**/*.bak", nested.FileGlob)
}

func TestParsePipeline_RejectsUnknownVersion(t *testing.T) {
	raw := []byte("version: 2\nname: x\nrecipes:\n  - type: file.delete\n")

	_, _, err := ParsePipeline(raw, DefaultRegistry(), Deps{})
	require.ErrorContains(t, err, "invalid pipeline")
}

func TestParsePipeline_RejectsMissingName(t *testing.T) {
	raw := []byte("version: 1\nrecipes:\n  - type: file.delete\n")

	_, _, err := ParsePipeline(raw, DefaultRegistry(), Deps{})
	require.ErrorContains(t, err, "invalid pipeline")
}

func TestParsePipeline_RejectsUnknownKeys(t *testing.T) {
	raw := []byte("version: 1\nname: x\nbogus: true\nrecipes:\n  - type: file.delete\n")

	_, _, err := ParsePipeline(raw, DefaultRegistry(), Deps{})
	require.ErrorContains(t, err, "invalid pipeline")
}

func TestParsePipeline_RejectsEmptyRecipes(t *testing.T) {
	raw := []byte("version: 1\nname: x\nrecipes: []\n")

	_, _, err := ParsePipeline(raw, DefaultRegistry(), Deps{})
	require.ErrorContains(t, err, "invalid pipeline")
}

func TestParsePipeline_UnknownRecipeType(t *testing.T) {
	raw := []byte("version: 1\nname: x\nrecipes:\n  - type: no.suchThing\n")

	_, _, err := ParsePipeline(raw, DefaultRegistry(), Deps{})
	require.ErrorContains(t, err, "unknown recipe type")
}

func TestParsePipeline_MalformedYAML(t *testing.T) {
	_, _, err := ParsePipeline([]byte(": not yaml ["), DefaultRegistry(), Deps{})
	require.Error(t, err)
}
