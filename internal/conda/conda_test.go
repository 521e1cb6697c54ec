package conda

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/paperforge/internal/failure"
	"github.com/vk/paperforge/internal/proc"
	"github.com/vk/paperforge/internal/workspace"
)

// recordingRunner records commands and creates the prefix on create.
type recordingRunner struct {
	cmds []proc.Command
	err  error
}

func (r *recordingRunner) Run(_ context.Context, c proc.Command) error {
	r.cmds = append(r.cmds, c)
	if r.err != nil {
		return r.err
	}
	if len(c.Args) > 3 && c.Args[1] == "create" {
		return os.MkdirAll(c.Args[3], 0o755)
	}
	return nil
}

const envFile = `name: paper
channels:
  - conda-forge
dependencies:
  - python=3.11
  - matplotlib
`

func setup(t *testing.T, content string) (workspace.Paths, *recordingRunner, *Provisioner) {
	t.Helper()
	root := t.TempDir()
	if content != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "environment.yml"), []byte(content), 0o644))
	}
	paths := workspace.Paths{Root: root}
	runner := &recordingRunner{}
	return paths, runner, NewProvisioner(paths, Config{}, runner)
}

func TestSetup_CreateThenReuse(t *testing.T) {
	paths, runner, p := setup(t, envFile)
	ctx := context.Background()

	env, err := p.Setup(ctx)
	require.NoError(t, err)
	assert.False(t, env.Reused)
	assert.Equal(t, paths.Descriptor(), env.Descriptor)
	assert.Equal(t, filepath.Join(paths.Root, ".paperforge", "env"), env.Prefix)
	require.Len(t, runner.cmds, 1)
	assert.Equal(t, "conda", runner.cmds[0].Name)
	assert.Equal(t, []string{"env", "create", "-p", env.Prefix, "-f", paths.Abs(paths.Descriptor()), "-q"}, runner.cmds[0].Args)

	desc, err := os.ReadFile(paths.Abs(paths.Descriptor()))
	require.NoError(t, err)
	assert.NotContains(t, string(desc), "name:")
	assert.Contains(t, string(desc), "matplotlib")

	env, err = p.Setup(ctx)
	require.NoError(t, err)
	assert.True(t, env.Reused)
	assert.Len(t, runner.cmds, 1, "an unchanged descriptor must not invoke conda")
}

func TestSetup_UpdatesWhenDescriptorChanges(t *testing.T) {
	paths, runner, p := setup(t, envFile)
	ctx := context.Background()

	_, err := p.Setup(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(paths.Abs("environment.yml"), []byte(envFile+"  - numpy\n"), 0o644))
	env, err := p.Setup(ctx)
	require.NoError(t, err)
	assert.False(t, env.Reused)
	require.Len(t, runner.cmds, 2)
	assert.Equal(t, "update", runner.cmds[1].Args[1])
	assert.Contains(t, runner.cmds[1].Args, "--prune")
}

func TestSetup_Failures(t *testing.T) {
	t.Run("missing environment file", func(t *testing.T) {
		_, runner, p := setup(t, "")
		_, err := p.Setup(context.Background())

		var envErr *failure.EnvironmentError
		require.ErrorAs(t, err, &envErr)
		assert.Equal(t, "read", envErr.Op)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Empty(t, runner.cmds)
	})

	t.Run("malformed environment file", func(t *testing.T) {
		_, _, p := setup(t, "dependencies: [unterminated")
		_, err := p.Setup(context.Background())

		var envErr *failure.EnvironmentError
		require.ErrorAs(t, err, &envErr)
		assert.Contains(t, err.Error(), "parsing environment.yml")
	})

	t.Run("conda fails", func(t *testing.T) {
		paths, runner, p := setup(t, envFile)
		runner.err = errors.New("solver gave up")
		_, err := p.Setup(context.Background())

		var envErr *failure.EnvironmentError
		require.ErrorAs(t, err, &envErr)
		assert.Equal(t, "create", envErr.Op)
		assert.EqualError(t, err, "environment create failed: solver gave up")
		assert.NoFileExists(t, filepath.Join(paths.Root, ".paperforge", "env", cacheName))
	})
}

func TestSetup_Disabled(t *testing.T) {
	root := t.TempDir()
	paths := workspace.Paths{Root: root}
	runner := &recordingRunner{}
	p := NewProvisioner(paths, Config{Disabled: true}, runner)

	env, err := p.Setup(context.Background())
	require.NoError(t, err)
	assert.Empty(t, env.Prefix)
	assert.Empty(t, runner.cmds)

	desc, err := os.ReadFile(paths.Abs(paths.Descriptor()))
	require.NoError(t, err)
	assert.Equal(t, "dependencies: []\n", string(desc))
}
