// Package workspace owns the repository layout used by a build and the
// formatRepo stage that normalizes it.
package workspace

import "path/filepath"

// TempDirName is the per-repository scratch directory.
const TempDirName = ".paperforge"

// Paths resolves the locations a build reads and writes. Methods returning
// repo-relative paths are the ones handed to build rules.
type Paths struct {
	Root string
}

// Temp is the scratch directory, relative to the root.
func (p Paths) Temp() string { return TempDirName }

// Preprocess is the scratch area for article preprocessing.
func (p Paths) Preprocess() string { return filepath.Join(TempDirName, "preprocess") }

// Compile is the scratch area for the compiler.
func (p Paths) Compile() string { return filepath.Join(TempDirName, "compile") }

// Logs holds per-run logs.
func (p Paths) Logs() string { return filepath.Join(TempDirName, "logs") }

// Descriptor is the shared environment descriptor every rule depends on.
func (p Paths) Descriptor() string { return filepath.Join(TempDirName, "environment.yml") }

// Executor is the default execution script for figure rules.
func (p Paths) Executor() string { return filepath.Join(TempDirName, "run-figure.sh") }

// State is the build state database.
func (p Paths) State() string { return filepath.Join(TempDirName, "build.db") }

// Report is where the run report is written.
func (p Paths) Report() string { return filepath.Join(TempDirName, "report.json") }

// Abs joins a repo-relative path onto the root. Absolute paths are returned
// unchanged.
func (p Paths) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, rel)
}
