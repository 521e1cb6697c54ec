package dag

import "sync"

// set is a set of node IDs.
type set map[string]struct{}

// Graph holds nodes and the edges between them. All methods are safe for
// concurrent use.
type Graph struct {
	mu sync.RWMutex
	// deps maps a node to the nodes it depends on.
	deps map[string]set
	// dependents maps a node to the nodes depending on it.
	dependents map[string]set
}
