package relation

import (
	"sort"

	"strata/internal/ast"
)

// Database maps each declared predicate to its relation. Schemes provide the
// headers, facts the initial rows; rules grow relations from there.
type Database map[ast.PredicateSym]*Relation

// NewDatabase seeds a database from the program's schemes and facts.
func NewDatabase(prog *ast.Program) Database {
	db := make(Database, len(prog.Schemes))
	for _, s := range prog.Schemes {
		db[s.Pred] = NewRelation(s.Attrs)
	}
	for _, f := range prog.Facts {
		db.Relation(f.Pred).Add(Tuple(f.Values))
	}
	return db
}

// Relation returns the relation for pred, creating an empty one with
// positional attribute names if the predicate was never declared. Validated
// programs never hit the fallback.
func (db Database) Relation(pred ast.PredicateSym) *Relation {
	if r, ok := db[pred]; ok {
		return r
	}
	header := make([]string, pred.Arity)
	for i := range header {
		header[i] = string(rune('A' + i))
	}
	r := NewRelation(header)
	db[pred] = r
	return r
}

// Clone deep-copies the database.
func (db Database) Clone() Database {
	out := make(Database, len(db))
	for pred, r := range db {
		out[pred] = r.Clone()
	}
	return out
}

// TupleCount sums the sizes of all relations.
func (db Database) TupleCount() int {
	n := 0
	for _, r := range db {
		n += r.Len()
	}
	return n
}

// SourceFunc supplies the relation to read for body atom i. The default
// source reads the database; the delta evaluator substitutes a delta
// relation for one atom at a time.
type SourceFunc func(i int, atom ast.Atom) *Relation

// DBSource reads every body atom from db.
func DBSource(db Database) SourceFunc {
	return func(_ int, atom ast.Atom) *Relation {
		return db.Relation(atom.Pred)
	}
}

// EvalBody joins the rule's body atoms left to right. Each atom is reduced
// to its variable columns first: constants and repeated variables become
// selects, then the atom projects onto its distinct variables. The result's
// header is the body's distinct variable names.
func EvalBody(r ast.Rule, source SourceFunc) *Relation {
	var acc *Relation
	for i, atom := range r.Body {
		rel := evalAtom(source(i, atom), atom)
		if acc == nil {
			acc = rel
			continue
		}
		acc = acc.NaturalJoin(rel)
	}
	if acc == nil {
		acc = NewRelation(nil)
	}
	return acc
}

// evalAtom narrows rel to the rows matching the atom and returns them
// projected onto the atom's distinct variables, renamed to the variable
// names so joins line up.
func evalAtom(rel *Relation, atom ast.Atom) *Relation {
	out := rel
	first := make(map[string]int, len(atom.Args))
	for i, arg := range atom.Args {
		if arg.Constant {
			out = out.SelectConst(i, arg.Value)
			continue
		}
		if j, ok := first[arg.Value]; ok {
			out = out.SelectEq(j, i)
		} else {
			first[arg.Value] = i
		}
	}
	vars := atom.Variables()
	cols := make([]int, len(vars))
	for k, v := range vars {
		cols[k] = first[v]
	}
	return out.Project(cols).Rename(vars)
}

// ProjectHead maps each body result row onto the head's argument list. Head
// variables pull their column from acc; head constants materialize as
// literal values.
func ProjectHead(acc *Relation, head ast.Atom) []Tuple {
	cols := make([]int, len(head.Args))
	for i, arg := range head.Args {
		if arg.Constant {
			cols[i] = -1
			continue
		}
		cols[i] = indexOf(acc.Header, arg.Value)
	}
	var out []Tuple
	for _, row := range acc.Rows() {
		t := make(Tuple, len(head.Args))
		for i, arg := range head.Args {
			if cols[i] < 0 {
				t[i] = arg.Value
				continue
			}
			t[i] = row[cols[i]]
		}
		out = append(out, t)
	}
	return out
}

// EvalRule evaluates r against db, merges the derived tuples into the head
// relation, and returns the newly added tuples sorted lexicographically.
func EvalRule(db Database, r ast.Rule) []Tuple {
	acc := EvalBody(r, DBSource(db))
	head := db.Relation(r.Head.Pred)
	var added []Tuple
	for _, t := range ProjectHead(acc, r.Head) {
		if head.Add(t) {
			added = append(added, t)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].key() < added[j].key() })
	return added
}

// QueryResult holds one query's answer: the distinct variable names in first
// occurrence order and the matching bindings, sorted. Count is the size of
// the result relation; for ground queries it is 1 on a match even though no
// bindings print.
type QueryResult struct {
	Query  ast.Query
	Vars   []string
	Tuples []Tuple
	Count  int
}

// Matched reports whether the query found anything.
func (qr QueryResult) Matched() bool { return qr.Count > 0 }

// EvalQuery matches the query atom against the saturated database.
func EvalQuery(db Database, q ast.Query) QueryResult {
	rel := evalAtom(db.Relation(q.Atom.Pred), q.Atom)
	return QueryResult{
		Query:  q,
		Vars:   rel.Header,
		Tuples: rel.Rows(),
		Count:  rel.Len(),
	}
}
