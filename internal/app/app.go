package app

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vk/paperforge/internal/proc"
)

// App encapsulates the dependencies and configuration of one paperforge run.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	runID  string
	runner proc.Runner
}

// NewApp is the constructor for the main application. A nil runner runs
// external programs with os/exec.
func NewApp(outW io.Writer, cfg *Config, runner proc.Runner) *App {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW).With("run_id", runID)
	logger.Debug("Logger configured successfully.")

	if runner == nil {
		runner = proc.NewExecRunner()
	}
	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		runID:  runID,
		runner: runner,
	}
}

// RunID identifies this run in logs and in the report.
func (a *App) RunID() string {
	return a.runID
}
