package graph

import "container/heap"

// Stratify computes the strongly connected components and returns them in
// evaluation order: a group comes after every group it depends on, and when
// several groups are ready at once the one containing the lowest rule ID
// goes first. The tie-break makes the order a pure function of the program.
func Stratify(g *Graph) []Group {
	groups := g.SCCs()
	n := len(groups)

	groupOf := make(map[int]int, g.Size())
	for gi, grp := range groups {
		for _, r := range grp.Rules {
			groupOf[r] = gi
		}
	}

	// Condensation: dependsOn[c] holds the groups c needs evaluated first,
	// dependents[c] the groups waiting on c.
	dependsOn := make([]edgeSet, n)
	dependents := make([]edgeSet, n)
	for c := 0; c < n; c++ {
		dependsOn[c] = make(edgeSet)
		dependents[c] = make(edgeSet)
	}
	for r := 0; r < g.Size(); r++ {
		for s := range g.fwd[r] {
			rc, sc := groupOf[r], groupOf[s]
			if rc == sc {
				continue
			}
			dependsOn[rc].add(sc)
			dependents[sc].add(rc)
		}
	}

	indeg := make([]int, n)
	ready := &groupQueue{groups: groups}
	for c := 0; c < n; c++ {
		indeg[c] = len(dependsOn[c])
		if indeg[c] == 0 {
			ready.items = append(ready.items, c)
		}
	}
	heap.Init(ready)

	order := make([]Group, 0, n)
	for ready.Len() > 0 {
		c := heap.Pop(ready).(int)
		order = append(order, groups[c])
		for d := range dependents[c] {
			indeg[d]--
			if indeg[d] == 0 {
				heap.Push(ready, d)
			}
		}
	}
	return order
}

// groupQueue is a min-heap of component indices keyed by each component's
// lowest rule ID.
type groupQueue struct {
	groups []Group
	items  []int
}

func (q *groupQueue) Len() int { return len(q.items) }

func (q *groupQueue) Less(i, j int) bool {
	return q.groups[q.items[i]].Min() < q.groups[q.items[j]].Min()
}

func (q *groupQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *groupQueue) Push(x any) { q.items = append(q.items, x.(int)) }

func (q *groupQueue) Pop() any {
	last := len(q.items) - 1
	v := q.items[last]
	q.items = q.items[:last]
	return v
}
