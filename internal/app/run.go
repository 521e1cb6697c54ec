package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/buildstate"
	"github.com/vk/paperforge/internal/conda"
	"github.com/vk/paperforge/internal/config"
	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/engine"
	"github.com/vk/paperforge/internal/failure"
	"github.com/vk/paperforge/internal/pipeline"
	"github.com/vk/paperforge/internal/publish"
	"github.com/vk/paperforge/internal/report"
	"github.com/vk/paperforge/internal/rules"
	"github.com/vk/paperforge/internal/settings"
	"github.com/vk/paperforge/internal/workspace"
)

// Run executes the article pipeline for the configured repository.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	s, err := a.loadSettings()
	if err != nil {
		return err
	}
	root, err := filepath.Abs(a.config.Root)
	if err != nil {
		return fmt.Errorf("resolving repository root: %w", err)
	}
	paths := workspace.Paths{Root: root}
	a.logger.Debug("Settings loaded.", "root", root, "config", s.Config, "workers", s.Build.Workers, "publish", s.Publish.Target)

	publisher, err := publish.New(publish.Options{
		Target: s.Publish.Target,
		Root:   root,
		Dir:    s.Publish.Dir,
		S3: publish.S3Config{
			Endpoint:  s.Publish.S3.Endpoint,
			AccessKey: s.Publish.S3.AccessKey,
			SecretKey: s.Publish.S3.SecretKey,
			Region:    s.Publish.S3.Region,
			UseSSL:    s.Publish.S3.UseSSL,
			Bucket:    s.Publish.S3.Bucket,
			Prefix:    s.Publish.S3.Prefix,
		},
	})
	if err != nil {
		return fmt.Errorf("configuring publisher: %w", err)
	}

	provisioner := conda.NewProvisioner(paths, conda.Config{
		Binary:   s.Environment.Conda,
		File:     s.Environment.File,
		Prefix:   s.Environment.Prefix,
		Disabled: s.Environment.Disabled,
	}, a.runner)

	a.logger.Info("🚀 Starting article build...")
	res, err := pipeline.Run(ctx, pipeline.Stages{
		FormatRepo:     workspace.NewNormalizer(paths, s.Config).Normalize,
		SetupConda:     provisioner.Setup,
		BuildArticle:   a.buildArticle(paths, s),
		GenerateReport: report.NewGenerator(paths, a.runID).Generate,
		PublishOutput:  publisher.Publish,
	})
	if err != nil {
		return err
	}

	a.logger.Info("🏁 Article build finished.", "article", res.Output.Article, "report", res.Report.Path, "artifacts", res.Report.Entries)
	return nil
}

func (a *App) loadSettings() (settings.Settings, error) {
	path := a.config.SettingsPath
	if path == "" {
		path = settings.DefaultPath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.config.Root, path)
	}
	s, err := settings.LoadFrom(path)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	if a.config.ConfigPath != "" {
		s.Config = a.config.ConfigPath
	}
	if a.config.Workers > 0 {
		s.Build.Workers = a.config.Workers
	}
	if a.config.PublishTarget != "" {
		s.Publish.Target = a.config.PublishTarget
	}
	if err := s.Validate(); err != nil {
		return settings.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// buildArticle returns the buildArticle stage: load and resolve the figure
// configuration, synthesize rules, append the article rule and hand the
// set to the build engine.
func (a *App) buildArticle(paths workspace.Paths, s settings.Settings) func(context.Context, artifact.Environment) (artifact.Output, error) {
	return func(ctx context.Context, env artifact.Environment) (artifact.Output, error) {
		logger := ctxlog.FromContext(ctx)
		configPath := paths.Abs(s.Config)

		model, err := LoaderFor(configPath).Load(ctx, configPath)
		if err != nil {
			var cfgErr *failure.ConfigurationError
			if !errors.As(err, &cfgErr) {
				err = &failure.ConfigurationError{Reason: "failed to load " + s.Config, Err: err}
			}
			return artifact.Output{}, err
		}
		model, err = config.Resolve(ctx, model, paths.Root)
		if err != nil {
			return artifact.Output{}, err
		}

		executor := s.Build.Executor
		if executor == "" {
			executor = paths.Executor()
		}
		rs, err := rules.Synthesize(model.Figures, rules.Env{Descriptor: env.Descriptor, Executor: executor})
		if err != nil {
			return artifact.Output{}, err
		}
		logger.Info("Synthesized figure rules.", "figures", len(model.Figures), "rules", len(rs))
		rs = append(rs, rules.ArticleRule(model.Article, model.Figures, s.Build.Compiler))

		store, err := buildstate.Open(ctx, paths.Abs(paths.State()))
		if err != nil {
			return artifact.Output{}, &failure.BuildError{Err: err}
		}
		defer store.Close()

		return engine.New(paths.Root, s.Build.Workers, a.runner, store).Build(ctx, rs, env)
	}
}
