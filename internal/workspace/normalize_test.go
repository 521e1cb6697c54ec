package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_CreatesLayout(t *testing.T) {
	root := t.TempDir()
	n := NewNormalizer(Paths{Root: root}, "")

	require.NoError(t, n.Normalize(context.Background()))

	for _, dir := range []string{"preprocess", "compile", "logs"} {
		assert.DirExists(t, filepath.Join(root, TempDirName, dir))
	}
	info, err := os.Stat(filepath.Join(root, TempDirName, "run-figure.sh"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100, "execution script must be executable")

	gitignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "/.paperforge/\n", string(gitignore))
}

func TestNormalize_Idempotent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.pyc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "article.hcl"), []byte("figure \"a\" {\ngraphics=[\"a.png\"]\n  command =   \"x\"\n}\n"), 0o644))

	n := NewNormalizer(Paths{Root: root}, "article.hcl")
	require.NoError(t, n.Normalize(context.Background()))

	gitignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	formatted, err := os.ReadFile(filepath.Join(root, "article.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "*.pyc\n/.paperforge/\n", string(gitignore))
	assert.Contains(t, string(formatted), `  graphics = ["a.png"]`)
	assert.Contains(t, string(formatted), `  command  = "x"`)

	require.NoError(t, n.Normalize(context.Background()))

	again, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, string(gitignore), string(again))
	assert.Equal(t, 1, strings.Count(string(again), TempDirName))

	formattedAgain, err := os.ReadFile(filepath.Join(root, "article.hcl"))
	require.NoError(t, err)
	assert.Equal(t, string(formatted), string(formattedAgain))
}

func TestNormalize_LeavesYAMLConfigAlone(t *testing.T) {
	root := t.TempDir()
	content := "figures:\n    a:   {}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "article.yml"), []byte(content), 0o644))

	require.NoError(t, NewNormalizer(Paths{Root: root}, "article.yml").Normalize(context.Background()))

	data, err := os.ReadFile(filepath.Join(root, "article.yml"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestPaths(t *testing.T) {
	p := Paths{Root: "/repo"}
	assert.Equal(t, filepath.Join(".paperforge", "environment.yml"), p.Descriptor())
	assert.Equal(t, filepath.Join("/repo", ".paperforge", "build.db"), p.Abs(p.State()))
	assert.Equal(t, "/elsewhere/x", p.Abs("/elsewhere/x"))
}
