package resolver

import (
	"tux/pkg/tuxerr"
)

// graph records which package depends on which during a walk.
type graph struct {
	nodes      []string // insertion order
	nodeSet    map[string]bool
	deps       map[string][]string // package -> its dependencies
	dependents map[string][]string // package -> packages depending on it
	edgeSet    map[[2]string]bool
}

func newGraph() *graph {
	return &graph{
		nodeSet:    make(map[string]bool),
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
		edgeSet:    make(map[[2]string]bool),
	}
}

func (g *graph) addNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// addEdge records that pkg depends on dep. Repeated edges are ignored.
func (g *graph) addEdge(pkg, dep string) {
	key := [2]string{pkg, dep}
	if g.edgeSet[key] {
		return
	}
	g.edgeSet[key] = true
	g.addNode(pkg)
	g.addNode(dep)
	g.deps[pkg] = append(g.deps[pkg], dep)
	g.dependents[dep] = append(g.dependents[dep], pkg)
}

// dependenciesFirst orders nodes so every package follows all of its
// dependencies (Kahn's algorithm). Packages that become ready at the same
// time keep their discovery order.
func (g *graph) dependenciesFirst() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	pending := make(map[string]int, len(g.nodes))
	queue := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		pending[n] = len(g.deps[n])
		if pending[n] == 0 {
			queue = append(queue, n)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		result = append(result, n)

		for _, p := range g.dependents[n] {
			pending[p]--
			if pending[p] == 0 {
				queue = append(queue, p)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var stuck []string
		for _, n := range g.nodes {
			if pending[n] > 0 {
				stuck = append(stuck, n)
			}
		}
		return nil, tuxerr.Wrap(tuxerr.KindCycle, &CycleError{Package: stuck[0], Path: stuck}, "cannot order dependencies")
	}

	return result, nil
}
