package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/buildstate"
	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/failure"
	"github.com/vk/paperforge/internal/proc"
	"github.com/vk/paperforge/internal/rules"
)

// StateStore persists rule fingerprints between runs.
type StateStore interface {
	Fingerprint(ctx context.Context, key string) (string, bool, error)
	Record(ctx context.Context, key, ruleID, fingerprint string) error
	Forget(ctx context.Context, key string) error
}

// Engine runs rule sets inside a repository root.
type Engine struct {
	root    string
	workers int
	runner  proc.Runner
	state   StateStore
}

// New creates an engine. A worker count below one is treated as one.
func New(root string, workers int, runner proc.Runner, state StateStore) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{root: root, workers: workers, runner: runner, state: state}
}

// Build runs every rule that is not up to date and returns the reportable
// artifacts in rule order. Every error is a *failure.BuildError.
func (e *Engine) Build(ctx context.Context, rs []rules.Rule, env artifact.Environment) (artifact.Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Planning build.", "rules", len(rs), "workers", e.workers)

	p, err := plan(rs)
	if err != nil {
		return artifact.Output{}, err
	}
	if err := e.checkSources(p); err != nil {
		return artifact.Output{}, err
	}
	logger.Debug("Build plan validated.", "nodes", p.graph.Len(), "order", p.order)

	fresh, err := e.execute(ctx, p, env)
	if err != nil {
		var buildErr *failure.BuildError
		if !errors.As(err, &buildErr) {
			err = &failure.BuildError{Err: err}
		}
		return artifact.Output{}, err
	}

	out := artifact.Output{}
	for _, r := range rs {
		for _, o := range r.Outputs {
			if o.Category == rules.CategoryArticle {
				out.Article = o.Path
			}
			if !o.Report {
				continue
			}
			out.Artifacts = append(out.Artifacts, artifact.Artifact{
				Path:     o.Path,
				Category: o.Category,
				Rule:     r.ID,
				Fresh:    fresh[r.ID],
			})
		}
	}
	return out, nil
}

// checkSources verifies that every input no rule produces already exists.
func (e *Engine) checkSources(p *buildPlan) error {
	for _, r := range p.rules {
		for _, in := range r.Inputs {
			if _, produced := p.producers[in]; produced {
				continue
			}
			if _, err := os.Stat(filepath.Join(e.root, in)); err != nil {
				return &failure.BuildError{Rule: r.ID, Err: fmt.Errorf("missing input %s: no rule produces it and it does not exist", in)}
			}
		}
	}
	return nil
}

// runRule runs a single rule unless it is up to date. It reports whether
// the rule was actually executed.
func (e *Engine) runRule(ctx context.Context, r rules.Rule, env artifact.Environment) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("rule", r.ID, "figure", r.Figure)

	outputs := r.OutputPaths()
	key := buildstate.Key(outputs)
	fp, err := buildstate.Fingerprint(e.root, r.Executor, r.Params, r.Inputs)
	if err != nil {
		return false, &failure.BuildError{Rule: r.ID, Err: fmt.Errorf("fingerprinting inputs: %w", err)}
	}

	stored, ok, err := e.state.Fingerprint(ctx, key)
	if err != nil {
		return false, &failure.BuildError{Rule: r.ID, Err: err}
	}
	if ok && stored == fp && e.allExist(outputs) {
		logger.Info("⏭️ Rule up to date, skipping.")
		return false, nil
	}

	for _, o := range outputs {
		if err := os.MkdirAll(filepath.Dir(filepath.Join(e.root, o)), 0o755); err != nil {
			return false, &failure.BuildError{Rule: r.ID, Err: err}
		}
	}

	logger.Info("▶️ Starting rule")
	cmd := proc.Command{
		Name: r.Executor,
		Args: []string{r.Params},
		Dir:  e.root,
		Env: []string{
			"PAPERFORGE_RULE=" + r.ID,
			"PAPERFORGE_FIGURE=" + r.Figure,
			"PAPERFORGE_OUTPUTS=" + strings.Join(outputs, " "),
			"PAPERFORGE_ENV_PREFIX=" + env.Prefix,
			"PAPERFORGE_ENV_DESCRIPTOR=" + env.Descriptor,
		},
	}
	if err := e.runner.Run(ctx, cmd); err != nil {
		return false, e.fail(ctx, r.ID, key, err)
	}

	for _, o := range outputs {
		if _, err := os.Stat(filepath.Join(e.root, o)); err != nil {
			return false, e.fail(ctx, r.ID, key, fmt.Errorf("declared output %s was not produced", o))
		}
	}
	if err := e.state.Record(ctx, key, r.ID, fp); err != nil {
		return false, &failure.BuildError{Rule: r.ID, Err: err}
	}

	logger.Info("✅ Finished rule")
	return true, nil
}

// fail drops the stored fingerprint of a rule whose outputs may now be
// partial, so the next run does not mistake them for up to date.
func (e *Engine) fail(ctx context.Context, ruleID, key string, cause error) error {
	if err := e.state.Forget(ctx, key); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not clear rule state.", "rule", ruleID, "error", err)
	}
	return &failure.BuildError{Rule: ruleID, Err: cause}
}

func (e *Engine) allExist(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(e.root, p)); err != nil {
			return false
		}
	}
	return true
}
