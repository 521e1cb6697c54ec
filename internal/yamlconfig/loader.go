// Package yamlconfig loads article configurations written in YAML:
//
//	scripts:
//	  py: python {script}
//	figures:
//	  fig_a:
//	    script: src/scripts/a.py
//	    graphics: [src/tex/figures/a.pdf]
//	    datasets: []
//	    dependencies: []
//	    command: null
//
// Figures are read through yaml.Node so that mapping order is preserved.
package yamlconfig

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/paperforge/internal/config"
	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/failure"
)

const nullTag = "!!null"

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

type articleDoc struct {
	Tex    string   `yaml:"tex"`
	Output string   `yaml:"output"`
	Extra  []string `yaml:"extra"`
}

// Load reads the YAML file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	model, err := Parse(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("YAML loading complete.", "figures", len(model.Figures), "script_templates", len(model.Scripts))
	return model, nil
}

// Parse decodes a YAML document into the agnostic model.
func Parse(data []byte) (*config.Model, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &failure.ConfigurationError{Reason: "invalid YAML", Err: err}
	}

	model := config.NewModel()
	if len(doc.Content) == 0 {
		return model, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &failure.ConfigurationError{Reason: "top level must be a mapping"}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if val.Tag == nullTag {
			continue
		}
		switch key {
		case "scripts":
			if err := val.Decode(&model.Scripts); err != nil {
				return nil, &failure.ConfigurationError{Field: key, Err: err}
			}
		case "article":
			var a articleDoc
			if err := val.Decode(&a); err != nil {
				return nil, &failure.ConfigurationError{Field: key, Err: err}
			}
			model.Article = config.ArticleSpec{Tex: a.Tex, Output: a.Output, Extra: a.Extra}
		case "figures":
			figures, err := parseFigures(val)
			if err != nil {
				return nil, err
			}
			model.Figures = figures
		}
	}
	if model.Scripts == nil {
		model.Scripts = make(map[string]string)
	}
	return model, nil
}

func parseFigures(node *yaml.Node) ([]config.Figure, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &failure.ConfigurationError{Field: "figures", Reason: "must be a mapping of figure names"}
	}

	seen := make(map[string]struct{})
	figures := make([]config.Figure, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if _, dup := seen[name]; dup {
			return nil, &failure.ConfigurationError{Figure: name, Reason: "declared twice"}
		}
		seen[name] = struct{}{}

		fig, err := parseFigure(name, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		figures = append(figures, fig)
	}
	return figures, nil
}

func parseFigure(name string, node *yaml.Node) (config.Figure, error) {
	fig := config.Figure{Name: name}
	if node.Tag == nullTag {
		return fig, nil
	}
	if node.Kind != yaml.MappingNode {
		return fig, &failure.ConfigurationError{Figure: name, Reason: "must be a mapping"}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		field, val := node.Content[i].Value, node.Content[i+1]
		if val.Tag == nullTag {
			continue
		}

		if field == "command" {
			if val.Kind != yaml.ScalarNode {
				return fig, &failure.ConfigurationError{Figure: name, Field: field, Reason: "must be a string"}
			}
			fig.Command = config.Some(val.Value)
			continue
		}

		paths, err := stringList(val)
		if err != nil {
			return fig, &failure.ConfigurationError{Figure: name, Field: field, Err: err}
		}
		switch field {
		case "script":
			fig.Script = config.Some(paths)
		case "graphics":
			fig.Graphics = config.Some(paths)
		case "datasets":
			fig.Datasets = config.Some(paths)
		case "dependencies":
			fig.Dependencies = config.Some(paths)
		default:
			return fig, &failure.ConfigurationError{Figure: name, Field: field, Reason: "unsupported field"}
		}
	}
	return fig, nil
}

// stringList accepts a scalar or a sequence of scalars.
func stringList(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == nullTag {
				return nil, fmt.Errorf("line %d: expected a path", item.Line)
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: expected a path or a list of paths", node.Line)
	}
}
