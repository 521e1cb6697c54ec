package app

import (
	"path/filepath"
	"strings"

	"github.com/vk/paperforge/internal/config"
	"github.com/vk/paperforge/internal/hcl"
	"github.com/vk/paperforge/internal/yamlconfig"
)

// LoaderFor picks the configuration loader for path by its extension.
// Anything that is not YAML, directories included, is read as HCL.
func LoaderFor(path string) config.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yamlconfig.NewLoader()
	default:
		return hcl.NewLoader()
	}
}
