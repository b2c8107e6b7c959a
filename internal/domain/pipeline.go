package domain

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
	"reshape.dev/pkg/reshape/internal/domain/recipes"
	m "reshape.dev/pkg/reshape/internal/model"
)

// PipelineSpec is the declarative form of a recipe tree, loaded from YAML.
type PipelineSpec struct {
	Version   int          `yaml:"version"`
	Name      string       `yaml:"name"`
	MaxCycles int          `yaml:"maxCycles"`
	MinCycles int          `yaml:"minCycles"`
	Recipes   []RecipeSpec `yaml:"recipes"`
}

// RecipeSpec names one recipe invocation, with optional nested children.
type RecipeSpec struct {
	Type    string         `yaml:"type"`
	Options map[string]any `yaml:"options"`
	Recipes []RecipeSpec   `yaml:"recipes"`
}

const pipelineSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "name", "recipes"],
  "properties": {
    "version": {"type": "integer", "const": 1},
    "name": {"type": "string", "minLength": 1},
    "maxCycles": {"type": "integer", "minimum": 1},
    "minCycles": {"type": "integer", "minimum": 0},
    "recipes": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/$defs/recipe"}
    }
  },
  "additionalProperties": false,
  "$defs": {
    "recipe": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string", "minLength": 1},
        "options": {"type": "object"},
        "recipes": {
          "type": "array",
          "items": {"$ref": "#/$defs/recipe"}
        }
      },
      "additionalProperties": false
    }
  }
}`

var compiledPipelineSchema = jsonschema.MustCompileString("pipeline.schema.json", pipelineSchema)

// LoadPipeline reads, validates and materializes a pipeline file into a
// composite root recipe.
func LoadPipeline(path string, registry *Registry, deps Deps) (m.Recipe, *PipelineSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read pipeline: %w", err)
	}

	return ParsePipeline(raw, registry, deps)
}

// ParsePipeline validates pipeline YAML against the schema and builds the
// recipe tree through the registry.
func ParsePipeline(raw []byte, registry *Registry, deps Deps) (m.Recipe, *PipelineSpec, error) {
	if err := validatePipeline(raw); err != nil {
		return nil, nil, err
	}

	var spec PipelineSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, nil, fmt.Errorf("decode pipeline: %w", err)
	}

	children, err := buildRecipes(spec.Recipes, registry, deps)
	if err != nil {
		return nil, nil, err
	}

	root := &recipes.Composite{
		PipelineName: spec.Name,
		Desc:         fmt.Sprintf("declarative pipeline with %d recipes", len(children)),
		Children:     children,
	}

	return root, &spec, nil
}

func buildRecipes(specs []RecipeSpec, registry *Registry, deps Deps) ([]m.Recipe, error) {
	built := make([]m.Recipe, 0, len(specs))

	for _, spec := range specs {
		recipe, err := registry.Build(spec.Type, spec.Options, deps)
		if err != nil {
			return nil, err
		}

		children, err := buildRecipes(spec.Recipes, registry, deps)
		if err != nil {
			return nil, err
		}

		built = append(built, recipes.WithChildren(recipe, children))
	}

	return built, nil
}

// validatePipeline checks the YAML document against the pipeline schema.
// The document is round-tripped through JSON so the validator sees plain
// JSON types.
func validatePipeline(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse pipeline: %w", err)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize pipeline: %w", err)
	}

	var jsonDoc any
	if err := json.Unmarshal(normalized, &jsonDoc); err != nil {
		return fmt.Errorf("normalize pipeline: %w", err)
	}

	if err := compiledPipelineSchema.Validate(jsonDoc); err != nil {
		return fmt.Errorf("invalid pipeline: %w", err)
	}

	return nil
}
