package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/paperforge/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		settingsPath string
		root         string
		logFormat    string
		logLevel     string
		workers      int
		publish      string
		parsed       *app.Config
	)

	cmd := &cobra.Command{
		Use:   "paperforge [CONFIG_PATH]",
		Short: "Build a reproducible scientific article",
		Long: `paperforge builds a scientific article from its figure scripts.

It normalizes the repository, prepares the conda environment, runs every
figure rule and the article compiler, writes a report and publishes the
result.

CONFIG_PATH is an .hcl file, a directory of .hcl files or a .yml file. It
defaults to the "config" value of the settings file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := ""
			if len(args) > 0 {
				configPath = args[0]
			}
			cfg, err := app.NewConfig(app.Config{
				Root:          root,
				SettingsPath:  settingsPath,
				ConfigPath:    configPath,
				LogFormat:     strings.ToLower(logFormat),
				LogLevel:      strings.ToLower(logLevel),
				Workers:       workers,
				PublishTarget: publish,
			})
			if err != nil {
				return err
			}
			parsed = cfg
			return nil
		},
	}
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	flags := cmd.Flags()
	flags.StringVarP(&root, "root", "C", ".", "Repository root to build.")
	flags.StringVar(&settingsPath, "settings", "", "Path to the settings file, relative to the root. Defaults to paperforge.toml.")
	flags.StringVar(&logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.IntVar(&workers, "workers", 0, "Number of concurrent build rules. 0 uses the settings value.")
	flags.StringVar(&publish, "publish", "", "Publish target override. Options: 'none', 'dir', 's3'.")

	if err := cmd.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if parsed == nil {
		// Help was requested.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", parsed)
	return parsed, false, nil
}
