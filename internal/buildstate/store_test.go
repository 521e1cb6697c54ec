package buildstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordAndFingerprint(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "build.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())

	_, ok, err := s.Fingerprint(ctx, "a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Record(ctx, "a.png", "fig1", "abc"))
	fp, ok, err := s.Fingerprint(ctx, "a.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", fp)

	require.NoError(t, s.Record(ctx, "a.png", "fig2", "def"))
	fp, _, err = s.Fingerprint(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, "def", fp)

	require.NoError(t, s.Forget(ctx, "a.png"))
	_, ok, err = s.Fingerprint(ctx, "a.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "build.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, "k", "fig1", "fp"))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	fp, ok, err := s.Fingerprint(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fp", fp)
}

func TestKey_OrderIndependent(t *testing.T) {
	assert.Equal(t, Key([]string{"b", "a"}), Key([]string{"a", "b"}))
	assert.NotEqual(t, Key([]string{"a"}), Key([]string{"a", "b"}))
}

func TestFingerprint(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "in.txt"), []byte("v1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "env.yml"), []byte("deps: []"), 0o644))

	fp1, err := Fingerprint(root, "run.sh", "plot", []string{"in.txt", "env.yml"})
	require.NoError(t, err)

	same, err := Fingerprint(root, "run.sh", "plot", []string{"in.txt", "env.yml"})
	require.NoError(t, err)
	assert.Equal(t, fp1, same)

	otherParams, err := Fingerprint(root, "run.sh", "plot --dpi 300", []string{"in.txt", "env.yml"})
	require.NoError(t, err)
	assert.NotEqual(t, fp1, otherParams)

	require.NoError(t, os.WriteFile(filepath.Join(root, "env.yml"), []byte("deps: [numpy]"), 0o644))
	envChanged, err := Fingerprint(root, "run.sh", "plot", []string{"in.txt", "env.yml"})
	require.NoError(t, err)
	assert.NotEqual(t, fp1, envChanged, "changing the environment descriptor must invalidate the rule")

	_, err = Fingerprint(root, "run.sh", "plot", []string{"missing.txt"})
	assert.Error(t, err)
}

func TestFingerprint_ExecutorContent(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, ".paperforge", "run-figure.sh")
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0o755))
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexec sh -c \"$1\"\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "in.txt"), []byte("v1"), 0o644))

	before, err := Fingerprint(root, ".paperforge/run-figure.sh", "plot", []string{"in.txt"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nset -e\nexec sh -c \"$1\"\n"), 0o755))
	after, err := Fingerprint(root, ".paperforge/run-figure.sh", "plot", []string{"in.txt"})
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "an updated executor script must invalidate the rule")

	// Executors found on PATH are hashed by name only.
	onPath, err := Fingerprint(root, "tectonic", "plot", []string{"in.txt"})
	require.NoError(t, err)
	again, err := Fingerprint(root, "tectonic", "plot", []string{"in.txt"})
	require.NoError(t, err)
	assert.Equal(t, onPath, again)
}
