package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/ast"
)

const ancestorSrc = `Schemes:
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
`

func TestParseProgram(t *testing.T) {
	prog, err := Parse(ancestorSrc)
	require.NoError(t, err)

	require.Len(t, prog.Schemes, 2)
	require.Len(t, prog.Facts, 2)
	require.Len(t, prog.Rules, 2)
	require.Len(t, prog.Queries, 1)

	assert.Equal(t, ast.PredicateSym{Name: "par", Arity: 2}, prog.Schemes[0].Pred)
	assert.Equal(t, []string{"X", "Y"}, prog.Schemes[0].Attrs)
	assert.Equal(t, []string{"a", "b"}, prog.Facts[0].Values)

	assert.Equal(t, 0, prog.Rules[0].ID)
	assert.Equal(t, 1, prog.Rules[1].ID)
	assert.Equal(t, "anc", prog.Rules[1].Head.Pred.Name)
	require.Len(t, prog.Rules[1].Body, 2)
	assert.Equal(t, "par", prog.Rules[1].Body[0].Pred.Name)
	assert.Equal(t, "anc", prog.Rules[1].Body[1].Pred.Name)

	q := prog.Queries[0]
	assert.True(t, q.Atom.Args[0].Constant)
	assert.False(t, q.Atom.Args[1].Constant)
}

func TestRuleString(t *testing.T) {
	prog, err := Parse(ancestorSrc)
	require.NoError(t, err)
	assert.Equal(t, "anc(X,Y) :- par(X,Y).", prog.Rules[0].String())
	assert.Equal(t, "anc(X,Y) :- par(X,Z),anc(Z,Y).", prog.Rules[1].String())
	assert.Equal(t, "anc('a',X)?", prog.Queries[0].String())
	assert.Equal(t, "par('a','b').", prog.Facts[0].String())
}

func TestEmptyFactsAndRules(t *testing.T) {
	prog, err := Parse("Schemes:\n sn(A)\nFacts:\nRules:\nQueries:\n sn(B)?\n")
	require.NoError(t, err)
	assert.Empty(t, prog.Facts)
	assert.Empty(t, prog.Rules)
	require.Len(t, prog.Queries, 1)
}

func TestGrammarErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "fact missing period",
			src:  "Schemes:\n sn(A)\nFacts:\n sn('a')\nRules:\nQueries:\n sn(B)?\n",
			want: "line 5: expected '.'",
		},
		{
			name: "query missing question mark",
			src:  "Schemes:\n sn(A)\nFacts:\nRules:\nQueries:\n sn(B)\n",
			want: "expected '?'",
		},
		{
			name: "missing rules section",
			src:  "Schemes:\n sn(A)\nFacts:\nQueries:\n sn(B)?\n",
			want: "expected 'Rules'",
		},
		{
			name: "fact with variable argument",
			src:  "Schemes:\n sn(A)\nFacts:\n sn(X).\nRules:\nQueries:\n sn(B)?\n",
			want: "expected string",
		},
		{
			name: "empty schemes",
			src:  "Schemes:\nFacts:\nRules:\nQueries:\n sn(B)?\n",
			want: "expected identifier",
		},
		{
			name: "undefined token",
			src:  "Schemes:\n sn(A)\nFacts:\nRules:\nQueries:\n sn(B)? &\n",
			want: "found '&'",
		},
		{
			name: "truncated rule",
			src:  "Schemes:\n sn(A)\nFacts:\nRules:\n sn(X) :- ",
			want: "found end of input",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("undeclared body predicate", func(t *testing.T) {
		_, err := Parse("Schemes:\n sn(A)\nFacts:\nRules:\n sn(X) :- other(X).\nQueries:\n sn(B)?\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "other")
		assert.Contains(t, err.Error(), "not declared")
	})
	t.Run("arity mismatch", func(t *testing.T) {
		_, err := Parse("Schemes:\n sn(A,B)\nFacts:\n sn('a').\nRules:\nQueries:\n sn(X,Y)?\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheme declares 2")
	})
	t.Run("duplicate scheme", func(t *testing.T) {
		_, err := Parse("Schemes:\n sn(A)\n sn(B)\nFacts:\nRules:\nQueries:\n sn(X)?\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared twice")
	})
	t.Run("unbound head variable", func(t *testing.T) {
		_, err := Parse("Schemes:\n sn(A,B)\nFacts:\nRules:\n sn(X,Y) :- sn(X,X).\nQueries:\n sn(X,Y)?\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "head variable Y")
	})
	t.Run("undeclared query", func(t *testing.T) {
		prog, err := Parse("Schemes:\n sn(A)\nFacts:\nRules:\nQueries:\n sn(X)?\n")
		require.NoError(t, err)
		q, err := ParseQuery("ghost('a')?")
		require.NoError(t, err)
		err = ValidateQuery(prog, q)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ghost")
	})
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery("anc('a',X)?")
	require.NoError(t, err)
	assert.Equal(t, "anc", q.Atom.Pred.Name)
	assert.Equal(t, 2, q.Atom.Pred.Arity)

	_, err = ParseQuery("anc('a',X)? extra")
	require.Error(t, err)

	_, err = ParseQuery("anc('a',X)")
	require.Error(t, err)
}
