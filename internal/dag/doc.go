// Package dag provides a small, concurrency-safe directed acyclic graph of
// string-identified nodes. The build engine uses it to order rules: an edge
// from A to B means B consumes something A produces.
package dag
