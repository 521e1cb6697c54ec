// Package config defines the format-agnostic configuration model for an
// article build, along with the Loader interface that concrete formats
// (HCL, YAML) implement.
//
// The Model is the single source of truth for the rule synthesizer. Resolve
// fills in what the user left implicit (commands inferred from script
// extensions, placeholder expansion) before any rule is produced.
package config
