// Package app wires the pipeline stages to their implementations. It owns
// the run's logger and settings and is decoupled from the CLI entrypoint.
package app
