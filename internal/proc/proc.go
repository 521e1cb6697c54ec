// Package proc runs external programs on behalf of pipeline stages.
package proc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/vk/paperforge/internal/ctxlog"
)

// Command describes a single process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env entries are appended to the current process environment.
	Env []string
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes commands. Implementations block until the process exits.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands with os/exec, logging their output line by line
// at debug level.
type ExecRunner struct {
	// TailLines is how many trailing output lines are attached to an error.
	TailLines int
}

// NewExecRunner returns an ExecRunner keeping the last 20 lines of output.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{TailLines: 20}
}

// Run starts the command and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	logger := ctxlog.FromContext(ctx).With("command", c.Name)
	logger.Debug("Starting process.", "args", c.Args, "dir", c.Dir)

	out := &lineWriter{logger: logger, keep: r.TailLines}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	out.flush()
	if err != nil {
		if tail := out.tail(); tail != "" {
			return fmt.Errorf("%s: %w\n%s", c, err, tail)
		}
		return fmt.Errorf("%s: %w", c, err)
	}
	logger.Debug("Process finished.")
	return nil
}
