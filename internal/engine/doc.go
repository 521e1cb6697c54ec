// Package engine is the local build engine. It takes a synthesized rule set
// as data, orders it into a dependency graph by matching rule inputs against
// rule outputs, and runs the rules on a bounded pool of workers.
//
// A rule is skipped when its stored fingerprint (executor, params and the
// content of every input, the environment descriptor included) matches and
// all of its outputs exist. The first failing rule cancels the run; rules
// that depend on it never start.
package engine
