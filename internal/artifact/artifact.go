// Package artifact holds the values threaded between pipeline stages.
// Each stage returns a fresh value owned by the next stage.
package artifact

// Environment is the result of preparing the shared dependency environment.
type Environment struct {
	// Prefix is the directory of the provisioned environment.
	Prefix string
	// Descriptor is the environment file every build rule depends on.
	Descriptor string
	// Reused is true when the existing environment matched the descriptor.
	Reused bool
}

// Artifact is one file produced by the build.
type Artifact struct {
	Path     string
	Category string
	// Rule is the ID of the rule that produced the file.
	Rule string
	// Fresh is false when the rule was up to date and not re-run.
	Fresh bool
}

// Output is the result of building the article.
type Output struct {
	// Article is the path of the compiled article.
	Article string
	// Artifacts lists every reportable file in rule order.
	Artifacts []Artifact
}

// Report is the result of summarizing an Output.
type Report struct {
	// Path is where the report file was written.
	Path string
	// Article is the article path of the Output the report was computed from.
	Article string
	// Entries is the number of artifacts described.
	Entries int
}
