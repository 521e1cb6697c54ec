package workspace

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/hcl"
)

//go:embed run-figure.sh
var executorScript []byte

// Normalizer implements the formatRepo stage. Every step is idempotent:
// running it twice leaves the repository unchanged the second time.
type Normalizer struct {
	paths Paths
	// configPath is the article configuration; HCL files under it are
	// canonically formatted.
	configPath string
}

// NewNormalizer creates a Normalizer for the repository at paths.Root.
func NewNormalizer(paths Paths, configPath string) *Normalizer {
	return &Normalizer{paths: paths, configPath: configPath}
}

// Normalize prepares the scratch tree, installs the execution script,
// keeps the scratch tree out of version control and formats HCL config.
func (n *Normalizer) Normalize(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for _, dir := range []string{n.paths.Preprocess(), n.paths.Compile(), n.paths.Logs()} {
		if err := os.MkdirAll(n.paths.Abs(dir), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	changed, err := writeIfChanged(n.paths.Abs(n.paths.Executor()), executorScript, 0o755)
	if err != nil {
		return fmt.Errorf("installing execution script: %w", err)
	}
	if changed {
		logger.Debug("Installed execution script.", "path", n.paths.Executor())
	}

	if err := n.ensureIgnored(); err != nil {
		return err
	}

	formatted, err := n.formatHCL()
	if err != nil {
		return err
	}
	logger.Debug("Repository normalized.", "hcl_files_formatted", formatted)
	return nil
}

// ensureIgnored adds the scratch directory to .gitignore once.
func (n *Normalizer) ensureIgnored() error {
	path := n.paths.Abs(".gitignore")
	entry := "/" + TempDirName + "/"

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading .gitignore: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry {
			return nil
		}
	}

	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	data = append(data, entry+"\n"...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}

// formatHCL rewrites the HCL files of the article configuration in
// canonical form. Non-HCL configurations are left alone.
func (n *Normalizer) formatHCL() (int, error) {
	if n.configPath == "" {
		return 0, nil
	}
	target := n.paths.Abs(n.configPath)
	info, err := os.Stat(target)
	if err != nil {
		// A missing configuration is reported by the build stage.
		return 0, nil
	}
	if !info.IsDir() && filepath.Ext(target) != ".hcl" {
		return 0, nil
	}

	files, err := hcl.FindFiles(target)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return count, fmt.Errorf("reading %s: %w", file, err)
		}
		changed, err := writeIfChanged(file, hclwrite.Format(src), 0o644)
		if err != nil {
			return count, err
		}
		if changed {
			count++
		}
	}
	return count, nil
}

// writeIfChanged writes data to path only when the content differs.
func writeIfChanged(path string, data []byte, perm os.FileMode) (bool, error) {
	current, err := os.ReadFile(path)
	if err == nil && bytes.Equal(current, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return false, err
	}
	return true, nil
}
