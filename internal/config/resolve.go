package config

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/failure"
)

// StaticDir holds repo-relative graphics that are copied into place rather
// than generated.
const StaticDir = "src/static"

// Resolve returns a copy of the model in which every figure command is in
// its final form:
//   - a figure with a script but no command takes the template registered
//     for the script's extension; an unregistered extension is an error;
//   - a figure with neither script nor command whose graphics all exist
//     under StaticDir gets a cp command, and the static files become its
//     dependencies;
//   - the placeholders {script}, {output}, {datasets} and {dependencies} in
//     a present command are expanded to space-separated path lists.
//
// Paths are repo-relative; absolute paths are rejected. Figures without a
// command after inference stay absent and will be skipped by the
// synthesizer. The input model is not modified.
func Resolve(ctx context.Context, m *Model, root string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	if err := checkArticlePaths(m.Article); err != nil {
		return nil, err
	}

	out := &Model{
		Figures: make([]Figure, 0, len(m.Figures)),
		Scripts: m.Scripts,
		Article: m.Article,
	}
	for _, fig := range m.Figures {
		if err := checkFigurePaths(fig); err != nil {
			return nil, err
		}
		if !fig.Command.IsSet() {
			scripts := fig.Script.OrElse(nil)
			switch {
			case len(scripts) > 0:
				tmpl, ok := templateFor(m.Scripts, scripts[0])
				if !ok {
					return nil, &failure.ConfigurationError{
						Figure: fig.Name,
						Field:  "script",
						Reason: fmt.Sprintf("can't determine how to execute the figure script %s; add a command for its extension to scripts", scripts[0]),
					}
				}
				logger.Debug("Inferred figure command from script extension.", "figure", fig.Name, "script", scripts[0])
				fig.Command = Some(tmpl)
			default:
				if srcs, ok := staticSources(root, fig.Graphics.OrElse(nil)); ok {
					logger.Debug("Copying static graphics for figure.", "figure", fig.Name, "sources", srcs)
					fig = withStaticCopy(fig, srcs)
				}
			}
		}
		if cmd, ok := fig.Command.Get(); ok {
			fig.Command = Some(expand(cmd, fig))
		}
		out.Figures = append(out.Figures, fig)
	}
	return out, nil
}

// templateFor finds the command template for a script. The extension is the
// text after the last '.'; when that is unknown, the match grows leftward
// so that names like "data.tar.gz" can match "tar.gz".
func templateFor(templates map[string]string, script string) (string, bool) {
	parts := strings.Split(script, ".")
	for i := 1; i < len(parts); i++ {
		ext := strings.Join(parts[len(parts)-i:], ".")
		if tmpl, ok := templates[ext]; ok {
			return tmpl, true
		}
	}
	return "", false
}

// staticSources maps every graphic to StaticDir/<base name>. It reports
// false unless there is at least one graphic, all sources exist and no
// graphic already sits at its source.
func staticSources(root string, graphics []string) ([]string, bool) {
	if len(graphics) == 0 {
		return nil, false
	}
	srcs := make([]string, 0, len(graphics))
	for _, g := range graphics {
		src := path.Join(StaticDir, path.Base(filepath.ToSlash(g)))
		if src == path.Clean(filepath.ToSlash(g)) {
			return nil, false
		}
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(src)))
		if err != nil || info.IsDir() {
			return nil, false
		}
		srcs = append(srcs, src)
	}
	return srcs, true
}

func withStaticCopy(fig Figure, srcs []string) Figure {
	graphics := fig.Graphics.OrElse(nil)
	steps := make([]string, len(srcs))
	for i, src := range srcs {
		steps[i] = "cp " + src + " " + graphics[i]
	}
	deps := append([]string(nil), fig.Dependencies.OrElse(nil)...)
	fig.Dependencies = Some(append(deps, srcs...))
	fig.Command = Some(strings.Join(steps, " && "))
	return fig
}

func checkFigurePaths(fig Figure) error {
	fields := []struct {
		name  string
		paths Optional[[]string]
	}{
		{"script", fig.Script},
		{"graphics", fig.Graphics},
		{"datasets", fig.Datasets},
		{"dependencies", fig.Dependencies},
	}
	for _, f := range fields {
		for _, p := range f.paths.OrElse(nil) {
			if isAbs(p) {
				return &failure.ConfigurationError{Figure: fig.Name, Field: f.name, Reason: fmt.Sprintf("path %s must be relative to the repository root", p)}
			}
		}
	}
	return nil
}

func checkArticlePaths(a ArticleSpec) error {
	for _, p := range append([]string{a.Tex, a.Output}, a.Extra...) {
		if isAbs(p) {
			return &failure.ConfigurationError{Field: "article", Reason: fmt.Sprintf("path %s must be relative to the repository root", p)}
		}
	}
	return nil
}

func isAbs(p string) bool {
	return filepath.IsAbs(p) || strings.HasPrefix(p, "/")
}

func expand(cmd string, fig Figure) string {
	if !strings.Contains(cmd, "{") {
		return cmd
	}
	r := strings.NewReplacer(
		"{script}", strings.Join(fig.Script.OrElse(nil), " "),
		"{output}", strings.Join(fig.Graphics.OrElse(nil), " "),
		"{datasets}", strings.Join(fig.Datasets.OrElse(nil), " "),
		"{dependencies}", strings.Join(fig.Dependencies.OrElse(nil), " "),
	)
	return r.Replace(cmd)
}
