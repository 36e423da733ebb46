package generator

import (
	"fmt"
	"strings"
)

// DependencyGraph is a directed graph over entity keys. An edge from A to B
// means A needs B generated first. It is rebuilt per invocation and never
// persisted.
type DependencyGraph struct {
	nodes    []string // first-seen order, the tie-break for ordering
	deps     map[string]map[string]bool
	presence map[string]bool
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		deps:     make(map[string]map[string]bool),
		presence: make(map[string]bool),
	}
}

// AddNode records a node with no dependencies if it is not already known.
func (g *DependencyGraph) AddNode(key string) {
	if !g.presence[key] {
		g.presence[key] = true
		g.nodes = append(g.nodes, key)
		g.deps[key] = make(map[string]bool)
	}
}

// AddDependency records that dependent needs dependency generated first,
// inserting either node if absent.
func (g *DependencyGraph) AddDependency(dependent, dependency string) {
	g.AddNode(dependent)
	g.AddNode(dependency)
	g.deps[dependent][dependency] = true
}

// Nodes returns every node in first-seen order.
func (g *DependencyGraph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// CycleError reports the nodes stranded on (or behind) a dependency cycle.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected among entities: %s", strings.Join(e.Nodes, ", "))
}

// TopologicalOrder returns an ordering in which every dependency precedes
// its dependents. Ties break by first-seen node order so identical graphs
// always produce identical orderings. If a cycle exists the returned error
// is a *CycleError naming every node that could not be ordered.
func (g *DependencyGraph) TopologicalOrder() ([]string, error) {
	outstanding := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		outstanding[node] = len(g.deps[node])
	}

	order := make([]string, 0, len(g.nodes))
	emitted := make(map[string]bool, len(g.nodes))

	for len(order) < len(g.nodes) {
		progressed := false
		for _, node := range g.nodes {
			if emitted[node] || outstanding[node] != 0 {
				continue
			}
			emitted[node] = true
			order = append(order, node)
			for _, other := range g.nodes {
				if !emitted[other] && g.deps[other][node] {
					outstanding[other]--
				}
			}
			progressed = true
			break
		}
		if !progressed {
			var stranded []string
			for _, node := range g.nodes {
				if !emitted[node] {
					stranded = append(stranded, node)
				}
			}
			return nil, &CycleError{Nodes: stranded}
		}
	}

	return order, nil
}
