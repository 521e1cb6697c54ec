package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/paperforge/internal/config"
	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/failure"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses a single .hcl file, or every .hcl file below a directory in
// lexical order, and merges them into one model. Figures keep the order in
// which their blocks appear.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, err := FindFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &failure.ConfigurationError{Reason: fmt.Sprintf("no .hcl files found at %s", path)}
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := config.NewModel()
	seen := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, &failure.ConfigurationError{Reason: fmt.Sprintf("failed to parse %s", file), Err: diags}
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, &failure.ConfigurationError{Reason: fmt.Sprintf("failed to decode %s", file), Err: diags}
		}

		for ext, tmpl := range root.Scripts {
			model.Scripts[ext] = tmpl
		}
		if root.Article != nil {
			model.Article = config.ArticleSpec{
				Tex:    root.Article.Tex,
				Output: root.Article.Output,
				Extra:  root.Article.Extra,
			}
		}
		for _, block := range root.Figures {
			if prev, dup := seen[block.Name]; dup {
				return nil, &failure.ConfigurationError{
					Figure: block.Name,
					Reason: fmt.Sprintf("declared twice (%s and %s)", prev, file),
				}
			}
			seen[block.Name] = file

			fig, err := translateFigure(block)
			if err != nil {
				return nil, err
			}
			model.Figures = append(model.Figures, fig)
		}
	}

	logger.Debug("HCL loading complete.", "figures", len(model.Figures), "script_templates", len(model.Scripts))
	return model, nil
}

// FindFiles returns path itself when it is an .hcl file, or every .hcl file
// below it when it is a directory.
func FindFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		if filepath.Ext(path) != ".hcl" {
			return nil, fmt.Errorf("not an .hcl file: %s", path)
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
