package hcl

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/paperforge/internal/config"
	"github.com/vk/paperforge/internal/failure"
)

// translateFigure converts a figure block into the agnostic model.
func translateFigure(block *figureBlock) (config.Figure, error) {
	fig := config.Figure{Name: block.Name}

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return fig, &failure.ConfigurationError{Figure: block.Name, Err: diags}
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		attr := attrs[name]
		if _, ok := figureAttributes[name]; !ok {
			return fig, &failure.ConfigurationError{Figure: block.Name, Field: name, Reason: "unsupported attribute"}
		}

		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fig, &failure.ConfigurationError{Figure: block.Name, Field: name, Err: diags}
		}
		if val.IsNull() {
			continue
		}

		if name == attrCommand {
			cmd, err := stringValue(val)
			if err != nil {
				return fig, &failure.ConfigurationError{Figure: block.Name, Field: name, Err: err}
			}
			fig.Command = config.Some(cmd)
			continue
		}

		paths, err := stringList(val)
		if err != nil {
			return fig, &failure.ConfigurationError{Figure: block.Name, Field: name, Err: err}
		}
		switch name {
		case attrScript:
			fig.Script = config.Some(paths)
		case attrGraphics:
			fig.Graphics = config.Some(paths)
		case attrDatasets:
			fig.Datasets = config.Some(paths)
		case attrDependencies:
			fig.Dependencies = config.Some(paths)
		}
	}
	return fig, nil
}

// stringValue converts a primitive value to a string.
func stringValue(val cty.Value) (string, error) {
	converted, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot convert %s to string: %w", val.Type().FriendlyName(), err)
	}
	return converted.AsString(), nil
}

// stringList accepts either a single string or a list/tuple of strings.
func stringList(val cty.Value) ([]string, error) {
	if val.Type() == cty.String {
		return []string{val.AsString()}, nil
	}

	converted, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s to list of strings: %w", val.Type().FriendlyName(), err)
	}

	out := []string{}
	if converted.LengthInt() == 0 {
		return out, nil
	}
	if err := gocty.FromCtyValue(converted, &out); err != nil {
		return nil, err
	}
	return out, nil
}
