// Package graph builds the dependency DAG over projects and produces the
// orderings used for builds and publishes.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jitrel/jitrel/internal/domain/project"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// Edge is a directed dependency edge: Depender requires Dependee.
type Edge struct {
	Depender project.ID
	Dependee project.ID
}

// ProjectGraph is the DAG of internal dependencies over a registry.
type ProjectGraph struct {
	reg   *project.Registry
	edges []Edge
}

// Build constructs the graph from the registry's dependency edges. Edges
// referencing unknown dependees are a configuration error.
func Build(reg *project.Registry) (*ProjectGraph, error) {
	const op = "graph.Build"

	g := &ProjectGraph{reg: reg}
	for _, p := range reg.Active() {
		for _, dep := range p.Dependencies() {
			dependee, ok := reg.ByQualifiedName(dep.Dependee)
			if !ok {
				return nil, jerrors.Validation(op,
					fmt.Sprintf("project %s depends on unknown project %s", p.QualifiedName(), dep.Dependee)).
					WithDetail("project", p.QualifiedName().String()).
					WithDetail("dependee", dep.Dependee.String())
			}
			g.edges = append(g.edges, Edge{Depender: p.ID(), Dependee: dependee.ID()})
		}
	}
	return g, nil
}

// Edges returns the dependency edges.
func (g *ProjectGraph) Edges() []Edge { return g.edges }

// Toposort returns the active projects ordered so that every dependee
// precedes its dependers (build order). Ties among mutually independent
// projects are broken arbitrarily and the order is not guaranteed stable
// across invocations. A cycle yields a CycleError-kinded error, never a
// truncated ordering.
func (g *ProjectGraph) Toposort() ([]*project.Project, error) {
	const op = "graph.Toposort"

	active := g.reg.Active()
	indegree := make(map[project.ID]int, len(active))
	dependers := make(map[project.ID][]project.ID)
	for _, p := range active {
		indegree[p.ID()] = 0
	}
	for _, e := range g.edges {
		if _, ok := indegree[e.Dependee]; !ok {
			continue // edge into an ignored project
		}
		indegree[e.Depender]++
		dependers[e.Dependee] = append(dependers[e.Dependee], e.Depender)
	}

	var queue []project.ID
	for _, p := range active {
		if indegree[p.ID()] == 0 {
			queue = append(queue, p.ID())
		}
	}

	ordered := make([]*project.Project, 0, len(active))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		p, _ := g.reg.Get(id)
		ordered = append(ordered, p)
		for _, dep := range dependers[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(ordered) != len(active) {
		return nil, g.cycleError(op, indegree)
	}
	return ordered, nil
}

// cycleError names the projects left with unresolved dependencies. The
// model assumes the dependency graph is acyclic by construction, and this
// is the sole enforcement point.
func (g *ProjectGraph) cycleError(op string, indegree map[project.ID]int) error {
	var members []string
	for id, deg := range indegree {
		if deg > 0 {
			if p, ok := g.reg.Get(id); ok {
				members = append(members, p.QualifiedName().String())
			}
		}
	}
	sort.Strings(members)
	return jerrors.Graph(op,
		fmt.Sprintf("dependency cycle involving %s", strings.Join(members, ", "))).
		WithDetail("projects", members)
}
