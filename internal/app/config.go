package app

import (
	"errors"
	"fmt"
)

// Config holds the command-line level options for one run. Zero values
// defer to the settings file.
type Config struct {
	// Root is the repository the article lives in.
	Root string
	// SettingsPath is the tool settings file, relative to Root.
	SettingsPath string
	// ConfigPath overrides the article configuration path from settings.
	ConfigPath string

	LogFormat     string
	LogLevel      string
	Workers       int
	PublishTarget string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if _, ok := levels[cfg.LogLevel]; cfg.LogLevel != "" && !ok {
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	return &cfg, nil
}
