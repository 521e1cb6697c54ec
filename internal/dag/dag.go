package dag

import (
	"fmt"
	"sort"
	"strings"
)

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		deps:       make(map[string]set),
		dependents: make(map[string]set),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.deps[id]; ok {
		return
	}
	g.deps[id] = make(set)
	g.dependents[id] = make(set)
}

// AddEdge records that `to` depends on `from`. Both nodes must exist and
// must differ.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", from, to)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.deps[from]; !ok {
		return fmt.Errorf("source node not found: %s", from)
	}
	if _, ok := g.deps[to]; !ok {
		return fmt.Errorf("destination node not found: %s", to)
	}
	g.deps[to][from] = struct{}{}
	g.dependents[from][to] = struct{}{}
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.deps)
}

// Nodes returns every node ID in sorted order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.deps))
	for id := range g.deps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dependencies returns the sorted IDs id depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.deps[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return s.sorted(), nil
}

// Dependents returns the sorted IDs depending on id.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.dependents[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return s.sorted(), nil
}

// TopologicalOrder returns the nodes so that every node comes after all of
// its dependencies. Ties are broken by ID. It fails when the graph has a
// cycle, naming the nodes that could not be ordered.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	indegree := make(map[string]int, len(g.deps))
	var ready []string
	for id, deps := range g.deps {
		indegree[id] = len(deps)
		if len(deps) == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.deps))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var unlocked []string
		for dep := range g.dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				unlocked = append(unlocked, dep)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}

	if len(order) < len(g.deps) {
		var stuck []string
		for id, n := range indegree {
			if n > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("cycle detected among nodes: %s", strings.Join(stuck, ", "))
	}
	return order, nil
}

// DetectCycles returns an error if the graph is not acyclic.
func (g *Graph) DetectCycles() error {
	_, err := g.TopologicalOrder()
	return err
}

func (s set) sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
