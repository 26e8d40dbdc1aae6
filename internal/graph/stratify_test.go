package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/parser"
)

// twoCycles is 0->1->2->0 and 3<->4 with 0 depending on 3, plus an isolated
// vertex 5.
func twoCycles() *Graph {
	g := New(6)
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(2, 0)
	g.AddEdge(3, 4)
	g.AddEdge(4, 3)
	g.AddEdge(0, 3)
	return g
}

func TestSCCPartition(t *testing.T) {
	g := twoCycles()
	groups := g.SCCs()

	seen := make(map[int]int)
	for _, grp := range groups {
		require.NotEmpty(t, grp.Rules)
		for _, r := range grp.Rules {
			seen[r]++
		}
	}
	require.Len(t, seen, g.Size(), "every rule appears")
	for r, n := range seen {
		assert.Equal(t, 1, n, "rule %d in exactly one group", r)
	}

	members := make(map[int][]int)
	for _, grp := range groups {
		members[grp.Min()] = grp.Rules
	}
	assert.Equal(t, []int{0, 1, 2}, members[0])
	assert.Equal(t, []int{3, 4}, members[3])
	assert.Equal(t, []int{5}, members[5])
}

func TestSCCMutualRecursion(t *testing.T) {
	src := `Schemes:
  p(X)
  q(X)
Facts:
Rules:
  p(X) :- q(X).
  q(X) :- p(X).
Queries:
  p(X)?
`
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	g := Build(prog.Rules)
	groups := g.SCCs()
	require.Len(t, groups, 1)
	assert.Equal(t, []int{0, 1}, groups[0].Rules)
}

func TestSCCDeepChain(t *testing.T) {
	// The explicit-stack traversal handles a dependency chain far deeper
	// than any realistic program without special casing.
	const n = 50000
	g := New(n)
	for i := 1; i < n; i++ {
		g.AddEdge(i-1, i)
	}
	groups := g.SCCs()
	assert.Len(t, groups, n)
}

func TestStratifyTopologicalOrder(t *testing.T) {
	g := twoCycles()
	order := Stratify(g)

	pos := make(map[int]int)
	for i, grp := range order {
		for _, r := range grp.Rules {
			pos[r] = i
		}
	}
	for r := 0; r < g.Size(); r++ {
		for _, s := range g.Forward(r) {
			if pos[r] == pos[s] {
				continue
			}
			assert.Less(t, pos[s], pos[r], "R%d must be evaluated before R%d", s, r)
		}
	}
}

func TestStratifyLayeredProgram(t *testing.T) {
	prog, err := parser.Parse(layeredSrc)
	require.NoError(t, err)
	order := Stratify(Build(prog.Rules))

	require.Len(t, order, 3)
	assert.Equal(t, []int{0}, order[0].Rules)
	assert.Equal(t, []int{1}, order[1].Rules)
	assert.Equal(t, []int{2}, order[2].Rules)
}

func TestStratifyTieBreakLowestRuleID(t *testing.T) {
	t.Run("independent rules ascend", func(t *testing.T) {
		order := Stratify(New(3))
		require.Len(t, order, 3)
		for i, grp := range order {
			assert.Equal(t, i, grp.Min())
		}
	})

	t.Run("blocked lowest waits", func(t *testing.T) {
		g := New(3)
		g.AddEdge(0, 2)
		order := Stratify(g)
		mins := []int{order[0].Min(), order[1].Min(), order[2].Min()}
		assert.Equal(t, []int{1, 2, 0}, mins)
	})
}

func TestGroupLabel(t *testing.T) {
	assert.Equal(t, "R0", Group{Rules: []int{0}}.Label())
	assert.Equal(t, "R0,R2,R11", Group{Rules: []int{0, 2, 11}}.Label())
}

func TestGroupRecursive(t *testing.T) {
	g := New(3)
	g.AddEdge(0, 0)
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)

	assert.True(t, Group{Rules: []int{0}}.Recursive(g))
	assert.True(t, Group{Rules: []int{1, 2}}.Recursive(g))

	plain := New(1)
	assert.False(t, Group{Rules: []int{0}}.Recursive(plain))
}
