// Package graph builds the dependency DAG of a stack and derives start
// order. Nodes are service names; edges carry the readiness condition the
// dependency must reach before the dependent starts.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gantry-sh/gantry/pkg/stack"
)

// Edge records that Dependent must not start until Dependency reaches
// Condition.
type Edge struct {
	Dependent  string
	Dependency string
	Condition  stack.Condition
}

// Graph is the dependency structure of a stack.
type Graph struct {
	nodes []string
	deps  map[string][]Edge
	rdeps map[string][]string
}

// CycleError reports a dependency cycle through the named services.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}

// New builds the graph for a stack, rejecting unknown references and cycles.
func New(st *stack.Stack) (*Graph, error) {
	g := &Graph{
		nodes: st.ServiceNames(),
		deps:  make(map[string][]Edge),
		rdeps: make(map[string][]string),
	}
	for _, name := range g.nodes {
		svc := st.Services[name]
		for _, dep := range svc.DependsOn.Names() {
			if dep == name {
				return nil, &CycleError{Path: []string{name, name}}
			}
			if _, ok := st.Services[dep]; !ok {
				return nil, fmt.Errorf("service %s depends on undeclared service %s", name, dep)
			}
			g.deps[name] = append(g.deps[name], Edge{
				Dependent:  name,
				Dependency: dep,
				Condition:  svc.DependsOn[dep].Condition,
			})
			g.rdeps[dep] = append(g.rdeps[dep], name)
		}
	}
	for dep := range g.rdeps {
		sort.Strings(g.rdeps[dep])
	}
	if cycle := g.findCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}
	return g, nil
}

// Nodes returns every service name in lexical order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Dependencies returns the inbound requirement edges of a service, ordered
// by dependency name.
func (g *Graph) Dependencies(name string) []Edge {
	return append([]Edge(nil), g.deps[name]...)
}

// Dependents returns the services that directly depend on name.
func (g *Graph) Dependents(name string) []string {
	return append([]string(nil), g.rdeps[name]...)
}

// TransitiveDependents returns every service that directly or indirectly
// depends on name, in lexical order.
func (g *Graph) TransitiveDependents(name string) []string {
	seen := map[string]bool{}
	var walk func(n string)
	walk = func(n string) {
		for _, d := range g.rdeps[n] {
			if !seen[d] {
				seen[d] = true
				walk(d)
			}
		}
	}
	walk(name)
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// TopoOrder returns the services in dependency-first order, lexicographic
// among services whose prerequisites are equally satisfied.
func (g *Graph) TopoOrder() []string {
	indegree := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n] = len(g.deps[n])
	}
	var ready []string
	for _, n := range g.nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Strings(ready)
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, dependent := range g.rdeps[n] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	return order
}

// Layers partitions the services into start waves: every service in a layer
// has all of its dependencies in earlier layers. Services within a layer
// have no ordering between them.
func (g *Graph) Layers() [][]string {
	order := g.TopoOrder()
	depth := make(map[string]int, len(order))
	maxDepth := 0
	for _, n := range order {
		d := 0
		for _, e := range g.deps[n] {
			if dd := depth[e.Dependency] + 1; dd > d {
				d = dd
			}
		}
		depth[n] = d
		if d > maxDepth {
			maxDepth = d
		}
	}
	layers := make([][]string, maxDepth+1)
	for _, n := range order {
		layers[depth[n]] = append(layers[depth[n]], n)
	}
	return layers
}

func (g *Graph) findCycle() []string {
	const (
		white = iota
		grey
		black
	)
	state := make(map[string]int, len(g.nodes))
	var path []string
	var cycle []string

	var visit func(n string) bool
	visit = func(n string) bool {
		state[n] = grey
		path = append(path, n)
		for _, e := range g.deps[n] {
			dep := e.Dependency
			switch state[dep] {
			case grey:
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle = append(append([]string(nil), path[start:]...), dep)
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		state[n] = black
		return false
	}

	for _, n := range g.nodes {
		if state[n] == white && visit(n) {
			return cycle
		}
	}
	return nil
}
