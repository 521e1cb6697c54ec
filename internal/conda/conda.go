// Package conda implements the setupConda stage: it derives the shared
// environment descriptor from the user's environment file and creates,
// updates or reuses the isolated conda environment it describes.
package conda

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/failure"
	"github.com/vk/paperforge/internal/proc"
	"github.com/vk/paperforge/internal/workspace"
)

// cacheName is the copy of the descriptor kept inside the environment
// prefix; it records what the environment was last solved from.
const cacheName = ".paperforge-environment.yml"

// Config selects the environment file and where the environment lives.
type Config struct {
	// Binary is the conda executable (conda, mamba, micromamba).
	Binary string
	// File is the user's environment file, relative to the repository root.
	File string
	// Prefix is the environment directory; relative paths are resolved
	// against the repository root.
	Prefix string
	// Disabled writes the descriptor but never invokes conda.
	Disabled bool
}

// spec is the subset of an environment file that is carried over. The
// name and prefix keys are dropped because the environment is addressed by
// path.
type spec struct {
	Channels     []string          `yaml:"channels,omitempty"`
	Dependencies []any             `yaml:"dependencies"`
	Variables    map[string]string `yaml:"variables,omitempty"`
}

// Provisioner prepares the environment for a repository.
type Provisioner struct {
	paths  workspace.Paths
	cfg    Config
	runner proc.Runner
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(paths workspace.Paths, cfg Config, runner proc.Runner) *Provisioner {
	if cfg.Binary == "" {
		cfg.Binary = "conda"
	}
	if cfg.File == "" {
		cfg.File = "environment.yml"
	}
	return &Provisioner{paths: paths, cfg: cfg, runner: runner}
}

// Setup writes the descriptor and makes the environment match it.
func (p *Provisioner) Setup(ctx context.Context) (artifact.Environment, error) {
	logger := ctxlog.FromContext(ctx)

	descriptor, err := p.descriptor()
	if err != nil {
		return artifact.Environment{}, &failure.EnvironmentError{Op: "read", Err: err}
	}
	descPath := p.paths.Abs(p.paths.Descriptor())
	if err := writeFile(descPath, descriptor); err != nil {
		return artifact.Environment{}, &failure.EnvironmentError{Op: "write descriptor", Err: err}
	}
	env := artifact.Environment{Descriptor: p.paths.Descriptor()}

	if p.cfg.Disabled {
		logger.Warn("Environment provisioning disabled, rules run in the current environment.")
		return env, nil
	}

	prefix := p.paths.Abs(p.cfg.Prefix)
	if p.cfg.Prefix == "" {
		prefix = p.paths.Abs(filepath.Join(workspace.TempDirName, "env"))
	}
	env.Prefix = prefix
	cachePath := filepath.Join(prefix, cacheName)

	var op string
	var args []string
	switch _, statErr := os.Stat(prefix); {
	case os.IsNotExist(statErr):
		op = "create"
		logger.Info("Creating a new conda environment.", "prefix", prefix)
		args = []string{"env", "create", "-p", prefix, "-f", descPath, "-q"}
	case statErr != nil:
		return artifact.Environment{}, &failure.EnvironmentError{Op: "inspect", Err: statErr}
	default:
		cached, err := os.ReadFile(cachePath)
		if err == nil && bytes.Equal(cached, descriptor) {
			logger.Info("Reusing cached conda environment.", "prefix", prefix)
			env.Reused = true
			return env, nil
		}
		op = "update"
		logger.Info("Updating conda environment.", "prefix", prefix)
		args = []string{"env", "update", "-p", prefix, "-f", descPath, "--prune", "-q"}
	}

	if err := p.runner.Run(ctx, proc.Command{Name: p.cfg.Binary, Args: args, Dir: p.paths.Root}); err != nil {
		return artifact.Environment{}, &failure.EnvironmentError{Op: op, Err: err}
	}
	if err := writeFile(cachePath, descriptor); err != nil {
		return artifact.Environment{}, &failure.EnvironmentError{Op: "cache descriptor", Err: err}
	}
	return env, nil
}

// descriptor renders the normalized environment file. A missing user file
// is only tolerated when provisioning is disabled.
func (p *Provisioner) descriptor() ([]byte, error) {
	data, err := os.ReadFile(p.paths.Abs(p.cfg.File))
	if os.IsNotExist(err) && p.cfg.Disabled {
		data = nil
	} else if err != nil {
		return nil, err
	}

	var s spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p.cfg.File, err)
	}
	if s.Dependencies == nil {
		s.Dependencies = []any{}
	}
	return yaml.Marshal(&s)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
