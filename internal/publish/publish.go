// Package publish implements the publishOutput stage: it transmits the
// built artifacts and the run report to a configured target.
package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/ctxlog"
)

// Target names accepted by New.
const (
	TargetNone = "none"
	TargetDir  = "dir"
	TargetS3   = "s3"
)

// Publisher sends a finished build somewhere.
type Publisher interface {
	Publish(ctx context.Context, out artifact.Output, rep artifact.Report) error
}

// Options configures every target; only the fields of the selected target
// are read.
type Options struct {
	Target string
	// Root is the repository root artifact paths are relative to.
	Root string
	Dir  string
	S3   S3Config
}

// New returns the Publisher for opts.Target.
func New(opts Options) (Publisher, error) {
	switch strings.ToLower(opts.Target) {
	case "", TargetNone:
		return noop{}, nil
	case TargetDir:
		if strings.TrimSpace(opts.Dir) == "" {
			return nil, fmt.Errorf("publish target %q requires a directory", TargetDir)
		}
		return NewDirPublisher(opts.Root, opts.Dir), nil
	case TargetS3:
		return NewS3Publisher(opts.Root, opts.S3)
	default:
		return nil, fmt.Errorf("unknown publish target: '%s'", opts.Target)
	}
}

// files lists every path to publish: the reportable artifacts followed by
// the report itself.
func files(out artifact.Output, rep artifact.Report) []string {
	paths := make([]string, 0, len(out.Artifacts)+1)
	for _, a := range out.Artifacts {
		paths = append(paths, a.Path)
	}
	if rep.Path != "" {
		paths = append(paths, rep.Path)
	}
	return paths
}

type noop struct{}

func (noop) Publish(ctx context.Context, out artifact.Output, _ artifact.Report) error {
	ctxlog.FromContext(ctx).Info("No publish target configured, skipping.", "article", out.Article)
	return nil
}
