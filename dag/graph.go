package dag

import (
	"github.com/kbukum/orchestrator/errors"
)

// Graph holds nodes in insertion order together with their dependencies.
type Graph struct {
	order []string
	deps  map[string][]string
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{deps: make(map[string][]string)}
}

// AddNode adds name with its dependencies. Dependencies may reference nodes
// that are added later; they are checked by Resolve and BuildLevels. A
// repeated dependency is kept once.
func (g *Graph) AddNode(name string, dependencies ...string) error {
	if _, exists := g.deps[name]; exists {
		return errors.DuplicateComponent(name)
	}
	g.order = append(g.order, name)
	deps := make([]string, 0, len(dependencies))
	seen := make(map[string]bool, len(dependencies))
	for _, dep := range dependencies {
		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}
	g.deps[name] = deps
	return nil
}

// Nodes returns node names in insertion order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Edges returns every dependency edge.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, name := range g.order {
		for _, dep := range g.deps[name] {
			edges = append(edges, Edge{From: dep, To: name})
		}
	}
	return edges
}

// validate checks that every dependency references a known node.
func (g *Graph) validate() error {
	for _, name := range g.order {
		for _, dep := range g.deps[name] {
			if _, ok := g.deps[dep]; !ok {
				return errors.UnknownDependency(name, dep)
			}
		}
	}
	return nil
}

type color int

const (
	white color = iota // unvisited
	grey               // in progress
	black              // done
)

// Resolve returns the nodes in an order where every node appears after all
// of its dependencies. Ties are broken by insertion order, so the same graph
// always yields the same order.
func (g *Graph) Resolve() ([]string, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	colors := make(map[string]color, len(g.order))
	order := make([]string, 0, len(g.order))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch colors[name] {
		case black:
			return nil
		case grey:
			return errors.CircularDependency(cycleFrom(path, name))
		}

		colors[name] = grey
		path = append(path, name)
		for _, dep := range g.deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		colors[name] = black
		order = append(order, name)
		return nil
	}

	for _, name := range g.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cycleFrom extracts the cycle closing at name from the current DFS path.
// The returned chain starts and ends with name.
func cycleFrom(path []string, name string) []string {
	for i, n := range path {
		if n == name {
			chain := append([]string(nil), path[i:]...)
			return append(chain, name)
		}
	}
	return []string{name, name}
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level.
// Nodes within a level only depend on nodes of earlier levels; each level
// keeps insertion order. Returns an error if a cycle is detected.
func (g *Graph) BuildLevels() ([][]string, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	inDegree := make(map[string]int, len(g.order))
	dependents := make(map[string][]string)
	for _, name := range g.order {
		inDegree[name] = len(g.deps[name])
		for _, dep := range g.deps[name] {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	position := make(map[string]int, len(g.order))
	var queue []string
	for i, name := range g.order {
		position[name] = i
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		ready := make(map[string]bool)
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					ready[dep] = true
				}
			}
		}
		var next []string
		for _, name := range g.order {
			if ready[name] {
				next = append(next, name)
			}
		}
		queue = next
	}

	if visited != len(g.order) {
		// Resolve names the offending chain.
		if _, err := g.Resolve(); err != nil {
			return nil, err
		}
		return nil, errors.Conflict("dependency graph is not acyclic")
	}

	return levels, nil
}

// Reverse returns order reversed, the shutdown order for a startup order.
func Reverse(order []string) []string {
	out := make([]string, len(order))
	for i, name := range order {
		out[len(order)-1-i] = name
	}
	return out
}
