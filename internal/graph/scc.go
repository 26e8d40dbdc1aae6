package graph

import (
	"sort"
	"strconv"
	"strings"
)

// Group is one strongly connected component of the rule graph. Rules is
// ascending; every rule belongs to exactly one group.
type Group struct {
	Rules []int
}

// Min returns the lowest rule ID in the group. Groups are never empty.
func (grp Group) Min() int { return grp.Rules[0] }

// Label renders the member list as "R0,R2", the form the evaluation trace
// prints after "SCC:" and "passes:".
func (grp Group) Label() string {
	var b strings.Builder
	for i, id := range grp.Rules {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('R')
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// Recursive reports whether evaluating the group can feed itself: either the
// group has several rules or its single rule depends on its own head.
func (grp Group) Recursive(g *Graph) bool {
	if len(grp.Rules) > 1 {
		return true
	}
	r := grp.Rules[0]
	return g.HasEdge(r, r)
}

// SCCs computes the strongly connected components with an iterative
// Kosaraju pass: forward depth-first finish order, then reverse traversal
// in decreasing finish order. No recursion, so deep rule chains cannot
// overflow the stack. Component members come back ascending.
func (g *Graph) SCCs() []Group {
	n := g.Size()
	order := g.finishOrder()

	assigned := make([]bool, n)
	var groups []Group
	for i := n - 1; i >= 0; i-- {
		root := order[i]
		if assigned[root] {
			continue
		}
		members := []int{root}
		assigned[root] = true
		stack := []int{root}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for w := range g.rev[v] {
				if assigned[w] {
					continue
				}
				assigned[w] = true
				members = append(members, w)
				stack = append(stack, w)
			}
		}
		sort.Ints(members)
		groups = append(groups, Group{Rules: members})
	}
	return groups
}

// finishOrder returns vertices in increasing forward-DFS finish time, using
// an explicit frame stack.
func (g *Graph) finishOrder() []int {
	n := g.Size()
	visited := make([]bool, n)
	order := make([]int, 0, n)

	type frame struct {
		v    int
		nbrs []int
		next int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		stack := []frame{{v: start, nbrs: g.Forward(start)}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(f.nbrs) {
				w := f.nbrs[f.next]
				f.next++
				if !visited[w] {
					visited[w] = true
					stack = append(stack, frame{v: w, nbrs: g.Forward(w)})
				}
				continue
			}
			order = append(order, f.v)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}
