package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level construct an article file may contain.
type fileRoot struct {
	Scripts map[string]string `hcl:"scripts,optional"`
	Article *articleBlock     `hcl:"article,block"`
	Figures []*figureBlock    `hcl:"figure,block"`
}

// articleBlock describes the compiled article.
type articleBlock struct {
	Tex    string   `hcl:"tex,optional"`
	Output string   `hcl:"output,optional"`
	Extra  []string `hcl:"extra,optional"`
}

// figureBlock keeps the raw body so that absent, null and empty attributes
// can be told apart during translation.
type figureBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

const (
	attrScript       = "script"
	attrGraphics     = "graphics"
	attrDatasets     = "datasets"
	attrDependencies = "dependencies"
	attrCommand      = "command"
)

var figureAttributes = map[string]struct{}{
	attrScript:       {},
	attrGraphics:     {},
	attrDatasets:     {},
	attrDependencies: {},
	attrCommand:      {},
}
