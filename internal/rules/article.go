package rules

import "github.com/vk/paperforge/internal/config"

// ArticleRule returns the rule compiling the article. It depends on the
// article source, its auxiliary inputs and the graphics of every figure,
// including figures that have no rule of their own; those graphics must
// already exist when the engine runs.
func ArticleRule(spec config.ArticleSpec, figures []config.Figure, compiler string) Rule {
	tex := spec.TexPath()

	inputs := []string{tex}
	inputs = append(inputs, spec.Extra...)
	seen := make(map[string]struct{})
	for _, fig := range figures {
		for _, g := range fig.Graphics.OrElse(nil) {
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			inputs = append(inputs, g)
		}
	}

	return Rule{
		ID:       ArticleRuleID,
		Inputs:   inputs,
		Outputs:  []Output{{Path: spec.OutputPath(), Category: CategoryArticle, Report: true}},
		Params:   tex,
		Executor: compiler,
	}
}
