package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the configuration at path and translates it into the
	// format-agnostic model. Figure declaration order must be preserved.
	Load(ctx context.Context, path string) (*Model, error)
}
