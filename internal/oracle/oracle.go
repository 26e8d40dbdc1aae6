// Package oracle cross-checks evaluation results against google/mangle, an
// independent Datalog implementation. The program is rendered in mangle
// syntax, evaluated with mangle's engine, and the resulting fact set is
// diffed against ours. The two engines stratify and schedule differently, so
// agreement on the saturated database is meaningful evidence.
package oracle

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/google/mangle/analysis"
	mast "github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"strata/internal/ast"
	"strata/internal/relation"
)

// Translation is a program rendered as mangle source plus the name mapping
// needed to read results back. Identifier roles differ between the dialects:
// here quoting marks constants and case carries no meaning, while mangle
// requires lowercase predicates and uppercase variables. Both are renamed
// positionally rather than guessed at.
type Translation struct {
	Source string
	Names  map[ast.PredicateSym]string
}

// Translate renders prog in mangle syntax: a Decl per scheme, facts as
// quoted-string atoms, rules with per-rule renamed variables. Queries are
// dropped; the oracle only compares saturated databases.
func Translate(prog *ast.Program) *Translation {
	names := make(map[ast.PredicateSym]string, len(prog.Schemes))
	var b strings.Builder

	for i, s := range prog.Schemes {
		name := fmt.Sprintf("p%d", i)
		names[s.Pred] = name
		b.WriteString("Decl ")
		b.WriteString(name)
		b.WriteByte('(')
		for j := 0; j < s.Pred.Arity; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "X%d", j)
		}
		b.WriteString(").\n")
	}
	b.WriteByte('\n')

	for _, f := range prog.Facts {
		b.WriteString(names[f.Pred])
		b.WriteByte('(')
		for j, v := range f.Values {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(v))
		}
		b.WriteString(").\n")
	}
	b.WriteByte('\n')

	for _, r := range prog.Rules {
		vars := make(map[string]string)
		writeAtom(&b, r.Head, names, vars)
		b.WriteString(" :- ")
		for j, atom := range r.Body {
			if j > 0 {
				b.WriteString(", ")
			}
			writeAtom(&b, atom, names, vars)
		}
		b.WriteString(".\n")
	}

	return &Translation{Source: b.String(), Names: names}
}

func writeAtom(b *strings.Builder, atom ast.Atom, names map[ast.PredicateSym]string, vars map[string]string) {
	b.WriteString(names[atom.Pred])
	b.WriteByte('(')
	for i, arg := range atom.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		if arg.Constant {
			b.WriteString(quote(arg.Value))
			continue
		}
		v, ok := vars[arg.Value]
		if !ok {
			v = fmt.Sprintf("V%d", len(vars))
			vars[arg.Value] = v
		}
		b.WriteString(v)
	}
	b.WriteByte(')')
}

// quote renders a constant as a mangle string literal.
func quote(v string) string {
	escaped := strings.ReplaceAll(v, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// Eval runs prog through mangle's analyzer and engine and returns the
// saturated database keyed by our predicates, tuples sorted.
func Eval(prog *ast.Program) (map[ast.PredicateSym][]relation.Tuple, error) {
	tr := Translate(prog)
	unit, err := parse.Unit(bytes.NewReader([]byte(tr.Source)))
	if err != nil {
		return nil, fmt.Errorf("oracle parse: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("oracle analysis: %w", err)
	}
	store := factstore.NewSimpleInMemoryStore()
	if _, err := mengine.EvalProgramWithStats(info, store); err != nil {
		return nil, fmt.Errorf("oracle evaluation: %w", err)
	}

	out := make(map[ast.PredicateSym][]relation.Tuple, len(tr.Names))
	for pred, name := range tr.Names {
		sym := mast.PredicateSym{Symbol: name, Arity: pred.Arity}
		var rows []relation.Tuple
		err := store.GetFacts(mast.NewQuery(sym), func(atom mast.Atom) error {
			row := make(relation.Tuple, len(atom.Args))
			for i, arg := range atom.Args {
				c, ok := arg.(mast.Constant)
				if !ok {
					return fmt.Errorf("oracle derived non-constant argument %v in %s", arg, pred)
				}
				row[i] = c.Symbol
			}
			rows = append(rows, row)
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
		out[pred] = rows
	}
	return out, nil
}

func less(a, b relation.Tuple) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Diff lists the facts the two engines disagree on, rendered in source
// syntax and sorted.
type Diff struct {
	// Missing facts were derived by mangle but are absent from our database.
	Missing []string
	// Extra facts are present here but were not derived by mangle.
	Extra []string
}

// Empty reports full agreement.
func (d *Diff) Empty() bool { return len(d.Missing) == 0 && len(d.Extra) == 0 }

// Compare evaluates prog with mangle and diffs the result against db.
func Compare(prog *ast.Program, db relation.Database) (*Diff, error) {
	want, err := Eval(prog)
	if err != nil {
		return nil, err
	}

	d := &Diff{}
	for pred, rows := range want {
		rel := db.Relation(pred)
		for _, row := range rows {
			if !rel.Contains(row) {
				d.Missing = append(d.Missing, ast.Fact{Pred: pred, Values: row}.String())
			}
		}
	}
	for pred, rel := range db {
		seen := make(map[string]bool, len(want[pred]))
		for _, row := range want[pred] {
			seen[strings.Join(row, "\x1f")] = true
		}
		for _, row := range rel.Rows() {
			if !seen[strings.Join(row, "\x1f")] {
				d.Extra = append(d.Extra, ast.Fact{Pred: pred, Values: row}.String())
			}
		}
	}
	sort.Strings(d.Missing)
	sort.Strings(d.Extra)
	return d, nil
}
