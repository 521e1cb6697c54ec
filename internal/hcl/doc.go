// Package hcl provides the HCL implementation of the config.Loader
// interface. An article configuration looks like:
//
//	scripts = {
//	  py       = "python {script}"
//	  "tar.gz" = "tar -xzf {script}"
//	}
//
//	article {
//	  tex   = "src/tex/ms.tex"
//	  extra = ["src/tex/bib.bib"]
//	}
//
//	figure "fig_a" {
//	  script       = "src/scripts/a.py"
//	  graphics     = ["src/tex/figures/a.pdf"]
//	  datasets     = []
//	  dependencies = ["src/data/a.csv"]
//	}
//
// Attribute absence and an explicit null both leave a field unset; an
// explicit empty list or string is kept as a present, empty value.
package hcl
