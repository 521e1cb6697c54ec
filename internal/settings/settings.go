// Package settings loads the tool settings file (paperforge.toml).
package settings

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the settings file looked up in the repository root.
const DefaultPath = "paperforge.toml"

// EnvironmentSettings configures the conda environment.
type EnvironmentSettings struct {
	File     string `toml:"file"`
	Prefix   string `toml:"prefix"`
	Conda    string `toml:"conda"`
	Disabled bool   `toml:"disabled"`
}

// BuildSettings configures the build engine.
type BuildSettings struct {
	Workers  int    `toml:"workers"`
	Executor string `toml:"executor"`
	Compiler string `toml:"compiler"`
}

// S3Settings addresses the bucket used by the s3 publish target.
type S3Settings struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
}

// PublishSettings selects where build output goes.
type PublishSettings struct {
	Target string     `toml:"target"`
	Dir    string     `toml:"dir"`
	S3     S3Settings `toml:"s3"`
}

// Settings holds all paperforge settings.
type Settings struct {
	// Config is the article configuration file or directory.
	Config      string              `toml:"config"`
	Environment EnvironmentSettings `toml:"environment"`
	Build       BuildSettings       `toml:"build"`
	Publish     PublishSettings     `toml:"publish"`
}

// Default returns the settings used when no file is present.
func Default() Settings {
	return Settings{
		Config: "article.hcl",
		Environment: EnvironmentSettings{
			File:  "environment.yml",
			Conda: "conda",
		},
		Build: BuildSettings{
			Workers:  runtime.NumCPU(),
			Compiler: "tectonic",
		},
		Publish: PublishSettings{
			Target: "none",
			S3:     S3Settings{Region: "us-east-1"},
		},
	}
}

// LoadFrom reads settings from the given TOML file path on top of the
// defaults. If the file does not exist, the defaults are used.
// Environment variables always take precedence over file values; see
// applyEnvOverrides for the recognized names.
func LoadFrom(path string) (Settings, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Settings{}, fmt.Errorf("decoding %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Settings{}, fmt.Errorf("decoding %s: unknown key %q", path, undecoded[0].String())
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be caught while decoding.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Config) == "" {
		return fmt.Errorf("config path is required")
	}
	if s.Build.Workers < 0 {
		return fmt.Errorf("build.workers must not be negative, got %d", s.Build.Workers)
	}
	if strings.TrimSpace(s.Build.Compiler) == "" {
		return fmt.Errorf("build.compiler is required")
	}
	switch strings.ToLower(s.Publish.Target) {
	case "", "none", "s3":
	case "dir":
		if strings.TrimSpace(s.Publish.Dir) == "" {
			return fmt.Errorf("publish.dir is required for the dir target")
		}
	default:
		return fmt.Errorf("unknown publish target: '%s'", s.Publish.Target)
	}
	return nil
}

func applyEnvOverrides(cfg *Settings) error {
	strs := map[string]*string{
		"PAPERFORGE_CONFIG":         &cfg.Config,
		"PAPERFORGE_ENV_FILE":       &cfg.Environment.File,
		"PAPERFORGE_ENV_PREFIX":     &cfg.Environment.Prefix,
		"PAPERFORGE_CONDA":          &cfg.Environment.Conda,
		"PAPERFORGE_EXECUTOR":       &cfg.Build.Executor,
		"PAPERFORGE_COMPILER":       &cfg.Build.Compiler,
		"PAPERFORGE_PUBLISH_TARGET": &cfg.Publish.Target,
		"PAPERFORGE_PUBLISH_DIR":    &cfg.Publish.Dir,
		"PAPERFORGE_S3_ENDPOINT":    &cfg.Publish.S3.Endpoint,
		"PAPERFORGE_S3_ACCESS_KEY":  &cfg.Publish.S3.AccessKey,
		"PAPERFORGE_S3_SECRET_KEY":  &cfg.Publish.S3.SecretKey,
		"PAPERFORGE_S3_REGION":      &cfg.Publish.S3.Region,
		"PAPERFORGE_S3_BUCKET":      &cfg.Publish.S3.Bucket,
		"PAPERFORGE_S3_PREFIX":      &cfg.Publish.S3.Prefix,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"PAPERFORGE_CONDA_DISABLED": &cfg.Environment.Disabled,
		"PAPERFORGE_S3_USE_SSL":     &cfg.Publish.S3.UseSSL,
	}
	for name, dst := range bools {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}

	if v := os.Getenv("PAPERFORGE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PAPERFORGE_WORKERS: %w", err)
		}
		cfg.Build.Workers = n
	}
	return nil
}
