package settings

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, runtime.NumCPU(), cfg.Build.Workers)
	require.NoError(t, cfg.Validate())
}

func TestLoadFrom_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	content := `
config = "article.yml"

[environment]
prefix = "/opt/envs/paper"
disabled = true

[build]
workers = 3

[publish]
target = "s3"

[publish.s3]
endpoint = "minio.local:9000"
bucket = "papers"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "article.yml", cfg.Config)
	assert.Equal(t, "/opt/envs/paper", cfg.Environment.Prefix)
	assert.True(t, cfg.Environment.Disabled)
	assert.Equal(t, "environment.yml", cfg.Environment.File, "unset keys keep defaults")
	assert.Equal(t, 3, cfg.Build.Workers)
	assert.Equal(t, "tectonic", cfg.Build.Compiler)
	assert.Equal(t, "s3", cfg.Publish.Target)
	assert.Equal(t, "minio.local:9000", cfg.Publish.S3.Endpoint)
	assert.Equal(t, "us-east-1", cfg.Publish.S3.Region)
}

func TestLoadFrom_EnvVarsTakePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("[build]\nworkers = 3\n"), 0o600))

	t.Setenv("PAPERFORGE_WORKERS", "7")
	t.Setenv("PAPERFORGE_PUBLISH_TARGET", "dir")
	t.Setenv("PAPERFORGE_PUBLISH_DIR", "dist")
	t.Setenv("PAPERFORGE_S3_USE_SSL", "true")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Build.Workers)
	assert.Equal(t, "dir", cfg.Publish.Target)
	assert.Equal(t, "dist", cfg.Publish.Dir)
	assert.True(t, cfg.Publish.S3.UseSSL)
}

func TestLoadFrom_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(dir, "unknown.toml")
		require.NoError(t, os.WriteFile(path, []byte("[build]\nthreads = 2\n"), 0o600))
		_, err := LoadFrom(path)
		assert.ErrorContains(t, err, `unknown key "build.threads"`)
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "broken.toml")
		require.NoError(t, os.WriteFile(path, []byte("[build\n"), 0o600))
		_, err := LoadFrom(path)
		assert.ErrorContains(t, err, "decoding")
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("PAPERFORGE_WORKERS", "many")
		_, err := LoadFrom(filepath.Join(dir, "absent.toml"))
		assert.ErrorContains(t, err, "PAPERFORGE_WORKERS")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"defaults", func(*Settings) {}, ""},
		{"negative workers", func(s *Settings) { s.Build.Workers = -1 }, "must not be negative"},
		{"dir without path", func(s *Settings) { s.Publish.Target = "dir" }, "publish.dir is required"},
		{"unknown target", func(s *Settings) { s.Publish.Target = "ftp" }, "unknown publish target"},
		{"no compiler", func(s *Settings) { s.Build.Compiler = "" }, "build.compiler is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
