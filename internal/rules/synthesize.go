package rules

import (
	"fmt"

	"github.com/vk/paperforge/internal/config"
	"github.com/vk/paperforge/internal/failure"
)

// Synthesize turns the ordered figure list into build rules, one per figure
// with a command. Rule IDs are fig1, fig2, ... numbered over emitted rules
// only, in visitation order; figures without a command are skipped without
// consuming a number.
//
// An eligible figure missing graphics, datasets or dependencies, or
// declaring no graphics at all, fails the whole synthesis with a
// ConfigurationError; no partial rule set is returned. An absent script
// contributes no inputs.
func Synthesize(figures []config.Figure, env Env) ([]Rule, error) {
	out := make([]Rule, 0, len(figures))
	emitted := 0
	for _, fig := range figures {
		cmd, ok := fig.Command.Get()
		if !ok {
			continue
		}
		rule, err := synthesizeOne(fig, cmd, emitted+1, env)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
		emitted++
	}
	return out, nil
}

func synthesizeOne(fig config.Figure, cmd string, n int, env Env) (Rule, error) {
	graphics, err := required(fig, "graphics", fig.Graphics)
	if err != nil {
		return Rule{}, err
	}
	if len(graphics) == 0 {
		return Rule{}, &failure.ConfigurationError{
			Figure: fig.Name,
			Field:  "graphics",
			Reason: "a buildable figure must declare at least one output",
		}
	}
	datasets, err := required(fig, "datasets", fig.Datasets)
	if err != nil {
		return Rule{}, err
	}
	deps, err := required(fig, "dependencies", fig.Dependencies)
	if err != nil {
		return Rule{}, err
	}
	scripts := fig.Script.OrElse(nil)

	inputs := make([]string, 0, len(scripts)+len(datasets)+len(deps)+1)
	inputs = append(inputs, scripts...)
	inputs = append(inputs, datasets...)
	inputs = append(inputs, deps...)
	inputs = append(inputs, env.Descriptor)

	outputs := make([]Output, len(graphics))
	for i, g := range graphics {
		outputs[i] = Output{Path: g, Category: CategoryFigure, Report: true}
	}

	return Rule{
		ID:          fmt.Sprintf("fig%d", n),
		Figure:      fig.Name,
		Inputs:      inputs,
		Outputs:     outputs,
		Environment: env.Descriptor,
		Params:      cmd,
		Executor:    env.Executor,
	}, nil
}

func required(fig config.Figure, field string, v config.Optional[[]string]) ([]string, error) {
	paths, ok := v.Get()
	if !ok {
		return nil, &failure.ConfigurationError{Figure: fig.Name, Field: field, Reason: "missing required field"}
	}
	return paths, nil
}
