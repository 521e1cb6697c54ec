package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/failure"
)

// recorder builds Stages that log their invocation order.
type recorder struct {
	calls []string
	fail  map[string]error
}

func (r *recorder) stages() Stages {
	return Stages{
		FormatRepo: func(context.Context) error {
			r.calls = append(r.calls, StageFormatRepo)
			return r.fail[StageFormatRepo]
		},
		SetupConda: func(context.Context) (artifact.Environment, error) {
			r.calls = append(r.calls, StageSetupConda)
			if err := r.fail[StageSetupConda]; err != nil {
				return artifact.Environment{}, err
			}
			return artifact.Environment{Prefix: "/envs/paper", Descriptor: ".paperforge/environment.yml"}, nil
		},
		BuildArticle: func(_ context.Context, env artifact.Environment) (artifact.Output, error) {
			r.calls = append(r.calls, StageBuildArticle)
			if err := r.fail[StageBuildArticle]; err != nil {
				return artifact.Output{}, err
			}
			return artifact.Output{
				Article:   "ms.pdf",
				Artifacts: []artifact.Artifact{{Path: "a.png", Category: "Figure", Rule: "fig1"}, {Path: env.Prefix}},
			}, nil
		},
		GenerateReport: func(_ context.Context, out artifact.Output) (artifact.Report, error) {
			r.calls = append(r.calls, StageGenerateReport)
			if err := r.fail[StageGenerateReport]; err != nil {
				return artifact.Report{}, err
			}
			return artifact.Report{Path: "report.json", Article: out.Article, Entries: len(out.Artifacts)}, nil
		},
		PublishOutput: func(_ context.Context, out artifact.Output, rep artifact.Report) error {
			r.calls = append(r.calls, StagePublishOutput)
			if rep.Article != out.Article {
				return errors.New("report does not describe the published output")
			}
			return r.fail[StagePublishOutput]
		},
	}
}

func TestRun_AllStagesSucceed(t *testing.T) {
	r := &recorder{}

	res, err := Run(context.Background(), r.stages())
	require.NoError(t, err)

	assert.Equal(t, []string{StageFormatRepo, StageSetupConda, StageBuildArticle, StageGenerateReport, StagePublishOutput}, r.calls)
	assert.Equal(t, "ms.pdf", res.Output.Article)
	assert.Equal(t, "/envs/paper", res.Output.Artifacts[1].Path, "environment must be threaded into buildArticle")
	assert.Equal(t, artifact.Report{Path: "report.json", Article: res.Output.Article, Entries: len(res.Output.Artifacts)}, res.Report)
}

func TestRun_SetupCondaFailureStopsLaterStages(t *testing.T) {
	cause := &failure.EnvironmentError{Op: "create", Err: errors.New("solver gave up")}
	r := &recorder{fail: map[string]error{StageSetupConda: cause}}

	res, err := Run(context.Background(), r.stages())

	require.Error(t, err)
	assert.Equal(t, []string{StageFormatRepo, StageSetupConda}, r.calls)
	assert.Equal(t, Result{}, res)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageSetupConda, stageErr.Stage)

	var envErr *failure.EnvironmentError
	assert.ErrorAs(t, err, &envErr)
}

func TestRun_FormatRepoFailure(t *testing.T) {
	cause := errors.New("permission denied writing .gitignore")
	r := &recorder{fail: map[string]error{StageFormatRepo: cause}}

	_, err := Run(context.Background(), r.stages())

	require.Error(t, err)
	assert.Equal(t, cause.Error(), err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{StageFormatRepo}, r.calls)
}

func TestRun_FailFastAtEveryStage(t *testing.T) {
	order := []string{StageFormatRepo, StageSetupConda, StageBuildArticle, StageGenerateReport, StagePublishOutput}
	for i, stage := range order {
		t.Run(stage, func(t *testing.T) {
			cause := errors.New(stage + " broke")
			r := &recorder{fail: map[string]error{stage: cause}}

			_, err := Run(context.Background(), r.stages())

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, stage, stageErr.Stage)
			assert.EqualError(t, err, stage+" broke")
			assert.Equal(t, order[:i+1], r.calls)
		})
	}
}
