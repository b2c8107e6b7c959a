package domain

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"reshape.dev/pkg/reshape/internal/domain/recipes"
	m "reshape.dev/pkg/reshape/internal/model"
)

// Deps carries the collaborators recipe factories may need. The scheduler
// never reads it; only recipe construction does.
type Deps struct {
	Versions recipes.VersionSource
}

// Factory builds a recipe from its declarative options.
type Factory func(options map[string]any, deps Deps) (m.Recipe, error)

// Registry maps declarative recipe type names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a factory under the given type name, replacing any previous
// registration.
func (r *Registry) Register(typeName string, f Factory) {
	r.factories[typeName] = f
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for name := range r.factories {
		types = append(types, name)
	}

	sort.Strings(types)

	return types
}

// Build constructs a recipe of the given type.
func (r *Registry) Build(typeName string, options map[string]any, deps Deps) (m.Recipe, error) {
	factory, ok := r.factories[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown recipe type: %s", typeName)
	}

	recipe, err := factory(options, deps)
	if err != nil {
		return nil, fmt.Errorf("build recipe %s: %w", typeName, err)
	}

	return recipe, nil
}

// DefaultRegistry returns a registry populated with the built-in recipes.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("text.findAndReplace", func(options map[string]any, _ Deps) (m.Recipe, error) {
		var cfg struct {
			Find     string
			Replace  string
			FileGlob string `mapstructure:"fileGlob"`
		}

		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}

		return &recipes.FindReplace{Find: cfg.Find, Replace: cfg.Replace, FileGlob: cfg.FileGlob}, nil
	})

	r.Register("file.create", func(options map[string]any, _ Deps) (m.Recipe, error) {
		var cfg struct {
			Path    string
			Content string
		}

		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}

		return &recipes.CreateFile{Path: cfg.Path, Content: cfg.Content}, nil
	})

	r.Register("file.rename", func(options map[string]any, _ Deps) (m.Recipe, error) {
		var cfg struct {
			From string
			To   string
		}

		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}

		return &recipes.RenameFile{From: cfg.From, To: cfg.To}, nil
	})

	r.Register("file.delete", func(options map[string]any, _ Deps) (m.Recipe, error) {
		var cfg struct {
			FileGlob string `mapstructure:"fileGlob"`
		}

		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}

		return &recipes.DeleteFile{FileGlob: cfg.FileGlob}, nil
	})

	r.Register("deps.upgradeVersion", func(options map[string]any, deps Deps) (m.Recipe, error) {
		var cfg struct {
			Artifact string
			Version  string
			FileGlob string `mapstructure:"fileGlob"`
		}

		if err := decodeOptions(options, &cfg); err != nil {
			return nil, err
		}

		return &recipes.UpgradeVersion{
			Artifact: cfg.Artifact,
			Version:  cfg.Version,
			FileGlob: cfg.FileGlob,
			Source:   deps.Versions,
		}, nil
	})

	return r
}

func decodeOptions(options map[string]any, target any) error {
	if err := mapstructure.Decode(options, target); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}

	return nil
}
