package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/ast"
	"strata/internal/graph"
	"strata/internal/relation"
)

const reportSrc = `Schemes:
  par(X,Y)
  anc(X,Y)
Facts:
  par('a','b').
  par('b','c').
Rules:
  anc(X,Y) :- par(X,Y).
  anc(X,Y) :- par(X,Z),anc(Z,Y).
Queries:
  anc('a',X)?
  anc('c','a')?
`

const wantReport = `Dependency Graph
R0:
R1:R0,R1

Rule Evaluation
SCC: R0
anc(X,Y) :- par(X,Y).
  X='a', Y='b'
  X='b', Y='c'
1 passes: R0
SCC: R1
anc(X,Y) :- par(X,Z),anc(Z,Y).
  X='a', Y='c'
anc(X,Y) :- par(X,Z),anc(Z,Y).
2 passes: R1

anc('a',X)? Yes(2)
  X='b'
  X='c'
anc('c','a')? No
`

func TestFormatReport(t *testing.T) {
	res := runProgram(t, reportSrc, Options{})
	assert.Equal(t, wantReport, FormatReport(res))
}

func TestFormatReportIsStable(t *testing.T) {
	// Two runs of the same program must print byte-identical reports even
	// though run IDs differ.
	a := FormatReport(runProgram(t, reportSrc, Options{}))
	b := FormatReport(runProgram(t, reportSrc, Options{}))
	assert.Equal(t, a, b)
}

func TestFormatQueryBlock(t *testing.T) {
	t.Run("ground hit prints count only", func(t *testing.T) {
		qr := relation.QueryResult{
			Query:  ast.Query{Atom: ast.NewAtom("par", ast.NewConstant("a"), ast.NewConstant("b"))},
			Tuples: []relation.Tuple{{}},
			Count:  1,
		}
		assert.Equal(t, "par('a','b')? Yes(1)\n", FormatQueryBlock(qr))
	})

	t.Run("miss", func(t *testing.T) {
		qr := relation.QueryResult{
			Query: ast.Query{Atom: ast.NewAtom("par", ast.NewConstant("z"), ast.NewVariable("X"))},
		}
		assert.Equal(t, "par('z',X)? No\n", FormatQueryBlock(qr))
	})

	t.Run("bindings indent", func(t *testing.T) {
		qr := relation.QueryResult{
			Query:  ast.Query{Atom: ast.NewAtom("par", ast.NewVariable("A"), ast.NewVariable("B"))},
			Vars:   []string{"A", "B"},
			Tuples: []relation.Tuple{{"a", "b"}, {"b", "c"}},
			Count:  2,
		}
		want := "par(A,B)? Yes(2)\n  A='a', B='b'\n  A='b', B='c'\n"
		assert.Equal(t, want, FormatQueryBlock(qr))
	})
}

func TestFormatTraceHeadShapes(t *testing.T) {
	rule := ast.Rule{
		ID:   0,
		Head: ast.NewAtom("tag", ast.NewVariable("X"), ast.NewConstant("seen")),
		Body: []ast.Atom{ast.NewAtom("in", ast.NewVariable("X"))},
	}
	traces := []GroupTrace{{
		Group: groupOf(0),
		Passes: []Pass{{
			Firings: []RuleFiring{{Rule: rule, Added: []relation.Tuple{{"a", "seen"}}}},
		}},
	}}
	want := "SCC: R0\ntag(X,'seen') :- in(X).\n  X='a'\n1 passes: R0\n"
	assert.Equal(t, want, FormatTrace(traces))
}

func TestFormatTraceRepeatedHeadVariable(t *testing.T) {
	rule := ast.Rule{
		ID:   0,
		Head: ast.NewAtom("eq", ast.NewVariable("X"), ast.NewVariable("X")),
		Body: []ast.Atom{ast.NewAtom("in", ast.NewVariable("X"))},
	}
	traces := []GroupTrace{{
		Group: groupOf(0),
		Passes: []Pass{{
			Firings: []RuleFiring{{Rule: rule, Added: []relation.Tuple{{"a", "a"}}}},
		}},
	}}
	want := "SCC: R0\neq(X,X) :- in(X).\n  X='a'\n1 passes: R0\n"
	assert.Equal(t, want, FormatTrace(traces))
}

func groupOf(ids ...int) graph.Group {
	return graph.Group{Rules: ids}
}

func TestSemiNaiveReportReachesSameAnswers(t *testing.T) {
	baseline := runProgram(t, reportSrc, Options{})
	delta := runProgram(t, reportSrc, Options{SemiNaive: true})

	require.Equal(t, len(baseline.Queries), len(delta.Queries))
	for i := range baseline.Queries {
		assert.Equal(t, FormatQueryBlock(baseline.Queries[i]), FormatQueryBlock(delta.Queries[i]))
	}
}
