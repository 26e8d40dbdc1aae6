package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/ast"
	"strata/internal/parser"
)

func mustRules(t *testing.T, src string) *Graph {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	return Build(prog.Rules)
}

const layeredSrc = `Schemes:
  e(X,Y)
  t(X,Y)
  s(X,Y)
Facts:
  e('a','b').
  e('b','c').
Rules:
  t(X,Y) :- e(X,Y).
  t(X,Y) :- e(X,Z),t(Z,Y).
  s(X,Y) :- t(Y,X).
Queries:
  s(X,Y)?
`

func TestBuild(t *testing.T) {
	g := mustRules(t, layeredSrc)
	require.Equal(t, 3, g.Size())

	assert.Empty(t, g.Forward(0))
	assert.Equal(t, []int{0, 1}, g.Forward(1))
	assert.Equal(t, []int{0, 1}, g.Forward(2))

	assert.Equal(t, []int{1, 2}, g.Reverse(0))
	assert.Equal(t, []int{1, 2}, g.Reverse(1))
	assert.Empty(t, g.Reverse(2))

	assert.True(t, g.HasEdge(1, 1))
	assert.False(t, g.HasEdge(0, 1))
}

func TestForwardReverseConsistency(t *testing.T) {
	g := mustRules(t, layeredSrc)
	require.NoError(t, g.Validate())

	for r := 0; r < g.Size(); r++ {
		for _, s := range g.Forward(r) {
			assert.Contains(t, g.Reverse(s), r, "edge R%d->R%d missing transpose", r, s)
		}
		for _, s := range g.Reverse(r) {
			assert.Contains(t, g.Forward(s), r, "reverse edge R%d<-R%d missing forward", r, s)
		}
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	g := New(2)
	g.AddEdge(0, 1)
	require.NoError(t, g.Validate())

	// Rip out the transposed edge behind AddEdge's back.
	delete(g.rev[1], 0)
	assert.Error(t, g.Validate())
}

func TestRenderPair(t *testing.T) {
	// One rule depending on another renders R0:R1 forward and R1:R0 reverse.
	src := `Schemes:
  a(X)
  b(X)
Facts:
  b('x').
Rules:
  a(X) :- b(X).
  b(X) :- a(X).
Queries:
  a(X)?
`
	g := mustRules(t, src)
	assert.Equal(t, "R0:R1\nR1:R0\n", g.String())
	assert.Equal(t, "R0:R1\nR1:R0\n", g.ReverseForest())
}

func TestRenderShapes(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		g := New(0)
		assert.Equal(t, "", g.String())
		assert.Equal(t, "", g.ReverseForest())
	})

	t.Run("no dependencies", func(t *testing.T) {
		g := New(2)
		assert.Equal(t, "R0:\nR1:\n", g.String())
	})

	t.Run("self loop", func(t *testing.T) {
		g := New(1)
		g.AddEdge(0, 0)
		assert.Equal(t, "R0:R0\n", g.String())
		assert.Equal(t, "R0:R0\n", g.ReverseForest())
	})

	t.Run("neighbors ascending", func(t *testing.T) {
		g := New(3)
		g.AddEdge(2, 1)
		g.AddEdge(2, 0)
		g.AddEdge(2, 2)
		assert.Equal(t, "R0:\nR1:\nR2:R0,R1,R2\n", g.String())
		assert.Equal(t, "R0:R2\nR1:R2\nR2:R2\n", g.ReverseForest())
	})
}

func TestBuildIgnoresFactOnlyPredicates(t *testing.T) {
	// Body atoms over predicates no rule produces contribute no edges.
	g := mustRules(t, `Schemes:
  base(X)
  out(X)
Facts:
  base('a').
Rules:
  out(X) :- base(X).
Queries:
  out(X)?
`)
	assert.Equal(t, "R0:\n", g.String())
}

func TestBuildMatchesArityNotJustName(t *testing.T) {
	// A body atom q/1 must not match a rule head q/2; predicate identity is
	// the name and arity pair.
	rules := []ast.Rule{
		{
			ID:   0,
			Head: ast.NewAtom("p", ast.NewVariable("X")),
			Body: []ast.Atom{ast.NewAtom("q", ast.NewVariable("X"))},
		},
		{
			ID:   1,
			Head: ast.NewAtom("q", ast.NewVariable("X"), ast.NewVariable("Y")),
			Body: []ast.Atom{ast.NewAtom("p", ast.NewVariable("X"))},
		},
	}
	g := Build(rules)
	assert.Empty(t, g.Forward(0))
	assert.Equal(t, []int{0}, g.Forward(1))
}
