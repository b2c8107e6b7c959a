package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"reshape.dev/pkg/reshape/internal/domain/recipes"
	m "reshape.dev/pkg/reshape/internal/model"
)

func TestRegistry_TypesAreSorted(t *testing.T) {
	types := DefaultRegistry().Types()

	require.Equal(t, []string{
		"deps.upgradeVersion",
		"file.create",
		"file.delete",
		"file.rename",
		"text.findAndReplace",
	}, types)
}

func TestRegistry_BuildUnknownType(t *testing.T) {
	_, err := DefaultRegistry().Build("no.suchThing", nil, Deps{})
	require.ErrorContains(t, err, "unknown recipe type")
}

func TestRegistry_BuildDecodesOptions(t *testing.T) {
	recipe, err := DefaultRegistry().Build("text.findAndReplace", map[string]any{
		"find":     "a",
		"replace":  "b",
		"fileGlob": "**/*.txt",
	}, Deps{})
	require.NoError(t, err)

	fr, ok := recipe.(*recipes.FindReplace)
	require.True(t, ok)
	require.Equal(t, "a", fr.Find)
	require.Equal(t, "b", fr.Replace)
	require.Equal(t, "**/*.txt", fr.FileGlob)
}

func TestRegistry_BuildPassesVersionSource(t *testing.T) {
	source := stubVersions{"left-pad": "2.0.0"}

	recipe, err := DefaultRegistry().Build("deps.upgradeVersion", map[string]any{
		"artifact": "left-pad",
	}, Deps{Versions: source})
	require.NoError(t, err)

	up, ok := recipe.(*recipes.UpgradeVersion)
	require.True(t, ok)
	require.Equal(t, source, up.Source)
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", func(map[string]any, Deps) (m.Recipe, error) {
		return nil, errors.New("first")
	})
	r.Register("custom", func(map[string]any, Deps) (m.Recipe, error) {
		return nil, errors.New("second")
	})

	_, err := r.Build("custom", nil, Deps{})
	require.ErrorContains(t, err, "second")
}

type stubVersions map[string]string

func (s stubVersions) LatestVersion(artifact string) (string, bool, error) {
	v, ok := s[artifact]
	return v, ok, nil
}
