package config

import (
	"path/filepath"
	"strings"
)

const (
	// DefaultTex is the article source used when none is configured.
	DefaultTex = "src/tex/ms.tex"
)

// Model is the unified representation of an article configuration.
type Model struct {
	// Figures are kept in declaration order; that order drives rule numbering.
	Figures []Figure
	// Scripts maps a script extension (without the leading dot, e.g. "py" or
	// "tar.gz") to a command template.
	Scripts map[string]string
	Article ArticleSpec
}

// Figure is one named entry of the figure configuration.
type Figure struct {
	Name         string
	Script       Optional[[]string]
	Graphics     Optional[[]string]
	Datasets     Optional[[]string]
	Dependencies Optional[[]string]
	// Command absent means the figure is not buildable; an empty string is
	// still a present command.
	Command Optional[string]
}

// ArticleSpec describes the compiled article itself.
type ArticleSpec struct {
	Tex    string
	Output string
	// Extra lists auxiliary inputs of the article (bibliographies, styles).
	Extra []string
}

// NewModel returns an empty model with initialized maps.
func NewModel() *Model {
	return &Model{Scripts: make(map[string]string)}
}

// TexPath returns the configured article source or the default one.
func (a ArticleSpec) TexPath() string {
	if a.Tex == "" {
		return DefaultTex
	}
	return a.Tex
}

// OutputPath returns the configured article output, defaulting to the PDF
// next to the article source.
func (a ArticleSpec) OutputPath() string {
	if a.Output != "" {
		return a.Output
	}
	tex := a.TexPath()
	return strings.TrimSuffix(tex, filepath.Ext(tex)) + ".pdf"
}
