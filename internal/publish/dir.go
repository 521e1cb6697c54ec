package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/failure"
)

// DirPublisher copies artifacts into a directory, keeping their
// repo-relative layout.
type DirPublisher struct {
	root string
	dest string
}

// NewDirPublisher creates a DirPublisher. A relative dest is resolved
// against root.
func NewDirPublisher(root, dest string) *DirPublisher {
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(root, dest)
	}
	return &DirPublisher{root: root, dest: dest}
}

// Publish copies every artifact and the report.
func (p *DirPublisher) Publish(ctx context.Context, out artifact.Output, rep artifact.Report) error {
	logger := ctxlog.FromContext(ctx).With("target", p.dest)
	paths := files(out, rep)
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return &failure.PublishError{Target: p.dest, Err: err}
		}
		if err := copyFile(filepath.Join(p.root, rel), filepath.Join(p.dest, rel)); err != nil {
			return &failure.PublishError{Target: p.dest, Err: err}
		}
		logger.Debug("Copied artifact.", "path", rel)
	}
	logger.Info("Published build output.", "files", len(paths))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file '%s': %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
