// Package failure defines the error kinds surfaced by the article pipeline.
// Each kind keeps its cause reachable through errors.Unwrap so callers can
// match on both the kind (errors.As) and the root cause (errors.Is).
package failure

import "fmt"

// ConfigurationError reports a malformed or incomplete figure entry.
type ConfigurationError struct {
	Figure string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "invalid configuration"
	if e.Figure != "" {
		msg = fmt.Sprintf("invalid configuration for figure %q", e.Figure)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// EnvironmentError reports a failure to create, update or restore the
// shared dependency environment.
type EnvironmentError struct {
	Op  string
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment %s failed: %v", e.Op, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// BuildError reports a build engine failure. Rule is empty when the failure
// is not attributable to a single rule (e.g. an invalid graph).
type BuildError struct {
	Rule string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("build failed: %v", e.Err)
	}
	return fmt.Sprintf("build failed in rule %s: %v", e.Rule, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ReportError reports a failure to derive the report from the build output.
type ReportError struct {
	Err error
}

func (e *ReportError) Error() string { return fmt.Sprintf("report generation failed: %v", e.Err) }

func (e *ReportError) Unwrap() error { return e.Err }

// PublishError reports a failure to transmit the build output.
type PublishError struct {
	Target string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing to %s failed: %v", e.Target, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
