// Package pipeline sequences the five stages of an article build.
//
// Stages run strictly one after another. Each stage receives the values
// returned by earlier stages as arguments and returns a new value for the
// next one; nothing is shared between stages otherwise. The first failing
// stage ends the run.
package pipeline

import (
	"context"
	"time"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/ctxlog"
)

// Stage names, in execution order.
const (
	StageFormatRepo     = "formatRepo"
	StageSetupConda     = "setupConda"
	StageBuildArticle   = "buildArticle"
	StageGenerateReport = "generateReport"
	StagePublishOutput  = "publishOutput"
)

// Stages holds the stage implementations. Every field must be set.
type Stages struct {
	FormatRepo     func(ctx context.Context) error
	SetupConda     func(ctx context.Context) (artifact.Environment, error)
	BuildArticle   func(ctx context.Context, env artifact.Environment) (artifact.Output, error)
	GenerateReport func(ctx context.Context, out artifact.Output) (artifact.Report, error)
	PublishOutput  func(ctx context.Context, out artifact.Output, rep artifact.Report) error
}

// Result is what a successful run produced.
type Result struct {
	Output artifact.Output
	Report artifact.Report
}

// StageError identifies the stage that stopped the run. Its message is the
// stage's own error message.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Run executes the stages in order and returns the threaded result. On
// failure it returns a *StageError and no later stage is invoked.
func Run(ctx context.Context, s Stages) (Result, error) {
	if _, err := run(ctx, StageFormatRepo, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.FormatRepo(ctx)
	}); err != nil {
		return Result{}, err
	}

	env, err := run(ctx, StageSetupConda, s.SetupConda)
	if err != nil {
		return Result{}, err
	}

	out, err := run(ctx, StageBuildArticle, func(ctx context.Context) (artifact.Output, error) {
		return s.BuildArticle(ctx, env)
	})
	if err != nil {
		return Result{}, err
	}

	rep, err := run(ctx, StageGenerateReport, func(ctx context.Context) (artifact.Report, error) {
		return s.GenerateReport(ctx, out)
	})
	if err != nil {
		return Result{}, err
	}

	if _, err := run(ctx, StagePublishOutput, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.PublishOutput(ctx, out, rep)
	}); err != nil {
		return Result{}, err
	}

	return Result{Output: out, Report: rep}, nil
}

// run invokes one stage with a stage-scoped logger.
func run[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx = ctxlog.With(ctx, "stage", name)
	logger := ctxlog.FromContext(ctx)

	logger.Info("▶️ Starting stage")
	start := time.Now()
	v, err := fn(ctx)
	if err != nil {
		logger.Error("Stage failed.", "error", err, "duration", time.Since(start))
		var zero T
		return zero, &StageError{Stage: name, Err: err}
	}
	logger.Info("✅ Finished stage", "duration", time.Since(start))
	return v, nil
}
