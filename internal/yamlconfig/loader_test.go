package yamlconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/paperforge/internal/failure"
)

func TestParse_PreservesMappingOrder(t *testing.T) {
	model, err := Parse([]byte(`
scripts:
  py: python {script}
article:
  tex: src/tex/ms.tex
  extra: [src/tex/bib.bib]
figures:
  fig_b:
    command: plot.py
    graphics: [b.png]
    datasets: []
    dependencies: []
  fig_a:
    command: null
    graphics: [a.png]
    datasets: []
    dependencies: []
  fig_c:
    script: c.py
    graphics: c.png
    datasets: [d.h5]
    dependencies: [helpers.py]
    command: ""
`))
	require.NoError(t, err)

	require.Len(t, model.Figures, 3)
	assert.Equal(t, []string{"fig_b", "fig_a", "fig_c"}, []string{model.Figures[0].Name, model.Figures[1].Name, model.Figures[2].Name})
	assert.Equal(t, "python {script}", model.Scripts["py"])
	assert.Equal(t, "src/tex/ms.tex", model.Article.Tex)

	cmd, ok := model.Figures[0].Command.Get()
	assert.True(t, ok)
	assert.Equal(t, "plot.py", cmd)
	assert.False(t, model.Figures[0].Script.IsSet())

	assert.False(t, model.Figures[1].Command.IsSet(), "null command is absent")

	c := model.Figures[2]
	cmd, ok = c.Command.Get()
	assert.True(t, ok, "empty command string is present")
	assert.Empty(t, cmd)
	script, _ := c.Script.Get()
	assert.Equal(t, []string{"c.py"}, script)
	graphics, _ := c.Graphics.Get()
	assert.Equal(t, []string{"c.png"}, graphics)
}

func TestParse_MissingFieldsStayUnset(t *testing.T) {
	model, err := Parse([]byte("figures:\n  a:\n    command: x\n"))
	require.NoError(t, err)
	require.Len(t, model.Figures, 1)
	assert.False(t, model.Figures[0].Graphics.IsSet())
	assert.False(t, model.Figures[0].Datasets.IsSet())
	assert.NotNil(t, model.Scripts)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		figure string
	}{
		{name: "figures not a mapping", input: "figures: [a, b]"},
		{name: "duplicate figure", input: "figures:\n  a: {}\n  a: {}\n", figure: "a"},
		{name: "unknown field", input: "figures:\n  a:\n    outputs: [x]\n", figure: "a"},
		{name: "nested list", input: "figures:\n  a:\n    graphics: [[x]]\n", figure: "a"},
		{name: "command list", input: "figures:\n  a:\n    command: [x]\n", figure: "a"},
		{name: "top level list", input: "- a\n- b\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.Error(t, err)
			var cfgErr *failure.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %T: %v", err, err)
			assert.Equal(t, tc.figure, cfgErr.Figure)
		})
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.yml")
	require.NoError(t, os.WriteFile(path, []byte("figures:\n  a:\n    graphics: [a.png]\n"), 0o644))

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Figures, 1)

	_, err = NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
