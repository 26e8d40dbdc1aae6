// Package ast defines the in-memory representation of a Datalog program:
// schemes, facts, rules, and queries, plus the source-syntax renderers the
// report formatter relies on.
package ast

import (
	"fmt"
	"strings"
)

// PredicateSym identifies a predicate by name and arity. Two atoms refer to
// the same predicate only when both match; the relational database, the
// dependency graph, and the snapshot store all key on this pair.
type PredicateSym struct {
	Name  string
	Arity int
}

func (p PredicateSym) String() string {
	return fmt.Sprintf("%s/%d", p.Name, p.Arity)
}

// Term is one argument of an atom: a variable name or a quoted constant.
type Term struct {
	Value    string
	Constant bool
}

// NewVariable returns a variable term.
func NewVariable(name string) Term { return Term{Value: name} }

// NewConstant returns a constant term. The value carries no quotes; String
// adds them back.
func NewConstant(text string) Term { return Term{Value: text, Constant: true} }

func (t Term) String() string {
	if t.Constant {
		return "'" + t.Value + "'"
	}
	return t.Value
}

// Atom is a predicate applied to a list of terms.
type Atom struct {
	Pred PredicateSym
	Args []Term
}

// NewAtom builds an atom and derives the predicate arity from the terms.
func NewAtom(name string, args ...Term) Atom {
	return Atom{Pred: PredicateSym{Name: name, Arity: len(args)}, Args: args}
}

func (a Atom) String() string {
	var b strings.Builder
	b.WriteString(a.Pred.Name)
	b.WriteByte('(')
	for i, arg := range a.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(arg.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Variables returns the distinct variable names of the atom in first
// occurrence order. Constants are skipped.
func (a Atom) Variables() []string {
	seen := make(map[string]bool, len(a.Args))
	var vars []string
	for _, arg := range a.Args {
		if arg.Constant || seen[arg.Value] {
			continue
		}
		seen[arg.Value] = true
		vars = append(vars, arg.Value)
	}
	return vars
}

// Ground reports whether every argument is a constant.
func (a Atom) Ground() bool {
	for _, arg := range a.Args {
		if !arg.Constant {
			return false
		}
	}
	return true
}

// Scheme declares a predicate and names its attributes. Every predicate used
// anywhere in the program must be declared by exactly one scheme.
type Scheme struct {
	Pred  PredicateSym
	Attrs []string
}

func (s Scheme) String() string {
	return s.Pred.Name + "(" + strings.Join(s.Attrs, ",") + ")"
}

// Fact is a ground assertion. Values are unquoted constant strings in
// attribute order.
type Fact struct {
	Pred   PredicateSym
	Values []string
}

func (f Fact) String() string {
	quoted := make([]string, len(f.Values))
	for i, v := range f.Values {
		quoted[i] = "'" + v + "'"
	}
	return f.Pred.Name + "(" + strings.Join(quoted, ",") + ")."
}

// Rule derives head tuples from the conjunction of its body atoms. ID is the
// rule's zero-based position in the Rules section and doubles as its vertex
// index in the dependency graph.
type Rule struct {
	ID   int
	Head Atom
	Body []Atom
}

func (r Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Head.String())
	b.WriteString(" :- ")
	for i, atom := range r.Body {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(atom.String())
	}
	b.WriteByte('.')
	return b.String()
}

// Query is an atom to match against the saturated database.
type Query struct {
	Atom Atom
}

func (q Query) String() string {
	return q.Atom.String() + "?"
}

// Program is a parsed Datalog program in section order.
type Program struct {
	Schemes []Scheme
	Facts   []Fact
	Rules   []Rule
	Queries []Query
}

// Scheme looks up the scheme declaring pred.
func (p *Program) Scheme(pred PredicateSym) (Scheme, bool) {
	for _, s := range p.Schemes {
		if s.Pred == pred {
			return s, true
		}
	}
	return Scheme{}, false
}

// String renders the program back to source syntax, one item per line under
// the four section headers.
func (p *Program) String() string {
	var b strings.Builder
	b.WriteString("Schemes:\n")
	for _, s := range p.Schemes {
		b.WriteString("  " + s.String() + "\n")
	}
	b.WriteString("Facts:\n")
	for _, f := range p.Facts {
		b.WriteString("  " + f.String() + "\n")
	}
	b.WriteString("Rules:\n")
	for _, r := range p.Rules {
		b.WriteString("  " + r.String() + "\n")
	}
	b.WriteString("Queries:\n")
	for _, q := range p.Queries {
		b.WriteString("  " + q.String() + "\n")
	}
	return b.String()
}
