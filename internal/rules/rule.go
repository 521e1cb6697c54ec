// Package rules synthesizes build rules from a figure configuration.
//
// Synthesis is a pure function: it reads the ordered figure list once and
// returns an inspectable slice of Rule values that the build engine consumes
// as data. Nothing is registered or executed here.
package rules

const (
	// CategoryFigure tags the outputs of figure rules.
	CategoryFigure = "Figure"
	// CategoryArticle tags the compiled article.
	CategoryArticle = "Article"

	// ArticleRuleID is the identifier of the rule compiling the article.
	ArticleRuleID = "article"
)

// Env holds what every rule shares: the environment descriptor each rule
// depends on and the execution script each rule is run with.
type Env struct {
	// Descriptor is the path of the shared environment file.
	Descriptor string
	// Executor is the path of the script that runs a rule's Params.
	Executor string
}

// Output is a path a rule declares it produces.
type Output struct {
	Path     string
	Category string
	// Report marks the artifact for inclusion in the run report.
	Report bool
}

// Rule is one unit of work for the build engine.
type Rule struct {
	ID string
	// Figure is the name of the figure the rule was synthesized from; empty
	// for non-figure rules.
	Figure  string
	Inputs  []string
	Outputs []Output
	// Environment is the shared environment descriptor path.
	Environment string
	// Params is handed to Executor unchanged.
	Params   string
	Executor string
}

// OutputPaths returns the paths of the rule's outputs in declaration order.
func (r Rule) OutputPaths() []string {
	paths := make([]string, len(r.Outputs))
	for i, o := range r.Outputs {
		paths[i] = o.Path
	}
	return paths
}
