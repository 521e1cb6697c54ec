package engine

import (
	"fmt"

	"github.com/vk/paperforge/internal/dag"
	"github.com/vk/paperforge/internal/failure"
	"github.com/vk/paperforge/internal/rules"
)

// buildPlan is a validated rule set with its dependency graph.
type buildPlan struct {
	rules     []rules.Rule
	byID      map[string]rules.Rule
	producers map[string]string
	graph     *dag.Graph
	// order is a topological order of rule IDs.
	order []string
}

// plan links rules whose inputs are produced by other rules.
func plan(rs []rules.Rule) (*buildPlan, error) {
	p := &buildPlan{
		rules:     rs,
		byID:      make(map[string]rules.Rule, len(rs)),
		producers: make(map[string]string),
		graph:     dag.New(),
	}

	for _, r := range rs {
		if _, dup := p.byID[r.ID]; dup {
			return nil, &failure.BuildError{Rule: r.ID, Err: fmt.Errorf("duplicate rule id")}
		}
		p.byID[r.ID] = r
		p.graph.AddNode(r.ID)

		for _, o := range r.Outputs {
			if other, dup := p.producers[o.Path]; dup {
				return nil, &failure.BuildError{Rule: r.ID, Err: fmt.Errorf("output %s is also produced by rule %s", o.Path, other)}
			}
			p.producers[o.Path] = r.ID
		}
	}

	for _, r := range rs {
		for _, in := range r.Inputs {
			producer, ok := p.producers[in]
			if !ok {
				continue
			}
			if err := p.graph.AddEdge(producer, r.ID); err != nil {
				return nil, &failure.BuildError{Rule: r.ID, Err: fmt.Errorf("input %s: %w", in, err)}
			}
		}
	}

	order, err := p.graph.TopologicalOrder()
	if err != nil {
		return nil, &failure.BuildError{Err: fmt.Errorf("error validating dependency graph: %w", err)}
	}
	p.order = order
	return p, nil
}
