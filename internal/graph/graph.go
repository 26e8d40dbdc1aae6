// Package graph builds the rule dependency graph and stratifies it. Rules
// are vertices identified by their IDs; rule r has a forward edge to rule s
// when a body atom of r matches the head predicate of s. The reverse edges
// are maintained alongside because the component computation consumes both
// directions.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"strata/internal/ast"
)

type edgeSet map[int]struct{}

func (e edgeSet) add(v int)      { e[v] = struct{}{} }
func (e edgeSet) has(v int) bool { _, ok := e[v]; return ok }

func (e edgeSet) sorted() []int {
	out := make([]int, 0, len(e))
	for v := range e {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Graph is a flat vertex arena indexed by rule ID. Both adjacency
// directions are stored; AddEdge keeps them consistent.
type Graph struct {
	fwd []edgeSet
	rev []edgeSet
}

// New returns an edgeless graph over vertices 0..n-1.
func New(n int) *Graph {
	g := &Graph{
		fwd: make([]edgeSet, n),
		rev: make([]edgeSet, n),
	}
	for i := 0; i < n; i++ {
		g.fwd[i] = make(edgeSet)
		g.rev[i] = make(edgeSet)
	}
	return g
}

// Build constructs the dependency graph for the rules. For every body atom
// of rule r, every rule s whose head produces that predicate contributes the
// edge r -> s. Self loops mark directly recursive rules. Body predicates no
// rule produces contribute nothing.
func Build(rules []ast.Rule) *Graph {
	g := New(len(rules))
	producers := make(map[ast.PredicateSym][]int)
	for _, r := range rules {
		producers[r.Head.Pred] = append(producers[r.Head.Pred], r.ID)
	}
	for _, r := range rules {
		for _, atom := range r.Body {
			for _, s := range producers[atom.Pred] {
				g.AddEdge(r.ID, s)
			}
		}
	}
	return g
}

// Size returns the vertex count.
func (g *Graph) Size() int { return len(g.fwd) }

// AddEdge records from -> to in the forward set and the transposed edge in
// the reverse set.
func (g *Graph) AddEdge(from, to int) {
	g.fwd[from].add(to)
	g.rev[to].add(from)
}

// HasEdge reports whether from -> to exists.
func (g *Graph) HasEdge(from, to int) bool {
	return g.fwd[from].has(to)
}

// Forward returns the rule IDs that from depends on, ascending.
func (g *Graph) Forward(from int) []int { return g.fwd[from].sorted() }

// Reverse returns the rule IDs depending on to, ascending.
func (g *Graph) Reverse(to int) []int { return g.rev[to].sorted() }

// Validate fails if the two edge sets disagree. The sets are maintained
// together, so a failure means the graph was corrupted after construction.
func (g *Graph) Validate() error {
	for r := range g.fwd {
		for s := range g.fwd[r] {
			if s < 0 || s >= len(g.rev) {
				return fmt.Errorf("graph: edge R%d -> R%d leaves the arena", r, s)
			}
			if !g.rev[s].has(r) {
				return fmt.Errorf("graph: edge R%d -> R%d missing from reverse set", r, s)
			}
		}
	}
	for s := range g.rev {
		for r := range g.rev[s] {
			if r < 0 || r >= len(g.fwd) {
				return fmt.Errorf("graph: reverse edge R%d <- R%d leaves the arena", s, r)
			}
			if !g.fwd[r].has(s) {
				return fmt.Errorf("graph: reverse edge R%d <- R%d missing from forward set", s, r)
			}
		}
	}
	return nil
}

// String renders the forward graph, one line per rule ascending:
// "R<id>:<neighbors>" with neighbors ascending and comma separated. The
// result ends with a newline; an empty graph renders as the empty string.
func (g *Graph) String() string {
	return render(g.fwd)
}

// ReverseForest renders the reverse graph in the same format.
func (g *Graph) ReverseForest() string {
	return render(g.rev)
}

func render(edges []edgeSet) string {
	var b strings.Builder
	for id := 0; id < len(edges); id++ {
		b.WriteString("R")
		b.WriteString(fmt.Sprint(id))
		b.WriteString(":")
		for i, nbr := range edges[id].sorted() {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("R")
			b.WriteString(fmt.Sprint(nbr))
		}
		b.WriteString("\n")
	}
	return b.String()
}
