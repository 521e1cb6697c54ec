// Package report implements the generateReport stage.
package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/failure"
	"github.com/vk/paperforge/internal/workspace"
)

// Document is the on-disk report format.
type Document struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Article     string    `json:"article"`
	Artifacts   []Entry   `json:"artifacts"`
}

// Entry describes one reportable artifact.
type Entry struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Rule     string `json:"rule"`
	Fresh    bool   `json:"fresh"`
	Size     int64  `json:"size"`
	SHA256   string `json:"sha256"`
}

// Generator writes reports for one run.
type Generator struct {
	paths workspace.Paths
	runID string
	now   func() time.Time
}

// NewGenerator creates a Generator stamping reports with runID.
func NewGenerator(paths workspace.Paths, runID string) *Generator {
	return &Generator{paths: paths, runID: runID, now: time.Now}
}

// Generate summarizes out into the report file. The returned Report refers
// back to out's article so later stages can check they agree.
func (g *Generator) Generate(ctx context.Context, out artifact.Output) (artifact.Report, error) {
	doc := Document{
		RunID:       g.runID,
		GeneratedAt: g.now().UTC(),
		Article:     out.Article,
		Artifacts:   make([]Entry, 0, len(out.Artifacts)),
	}
	for _, a := range out.Artifacts {
		size, sum, err := digest(g.paths.Abs(a.Path))
		if err != nil {
			return artifact.Report{}, &failure.ReportError{Err: fmt.Errorf("artifact %s: %w", a.Path, err)}
		}
		doc.Artifacts = append(doc.Artifacts, Entry{
			Path:     a.Path,
			Category: a.Category,
			Rule:     a.Rule,
			Fresh:    a.Fresh,
			Size:     size,
			SHA256:   sum,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return artifact.Report{}, &failure.ReportError{Err: err}
	}
	path := g.paths.Abs(g.paths.Report())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return artifact.Report{}, &failure.ReportError{Err: err}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return artifact.Report{}, &failure.ReportError{Err: err}
	}

	ctxlog.FromContext(ctx).Info("Report written.", "path", g.paths.Report(), "entries", len(doc.Artifacts))
	return artifact.Report{Path: g.paths.Report(), Article: out.Article, Entries: len(doc.Artifacts)}, nil
}

// Read loads a report written by Generate.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return &doc, nil
}

func digest(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
