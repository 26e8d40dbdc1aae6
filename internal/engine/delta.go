package engine

import (
	"context"
	"fmt"
	"sort"

	"strata/internal/ast"
	"strata/internal/graph"
	"strata/internal/relation"
)

// deltaSet tracks the tuples each predicate gained in the previous pass.
// Only those need to participate in the next round of joins.
type deltaSet map[ast.PredicateSym]*relation.Relation

func (d deltaSet) relation(db relation.Database, pred ast.PredicateSym) *relation.Relation {
	if r, ok := d[pred]; ok {
		return r
	}
	r := relation.NewRelation(db.Relation(pred).Header)
	d[pred] = r
	return r
}

func (d deltaSet) empty() bool {
	for _, r := range d {
		if r.Len() > 0 {
			return false
		}
	}
	return true
}

// evalGroupDelta is the semi-naive variant of evalGroup. The first pass is a
// full evaluation that seeds the deltas; later passes re-derive only through
// joins that touch at least one delta tuple, substituting the delta relation
// for one body atom at a time. The fixpoint database matches full
// re-evaluation exactly; the pass count may differ by one on rule chains
// inside a group, which is why equivalence is asserted on the database.
func (in *Interpreter) evalGroupDelta(ctx context.Context, db relation.Database, grp graph.Group) (GroupTrace, error) {
	gt := GroupTrace{Group: grp}

	delta := make(deltaSet)
	first := Pass{}
	for _, id := range grp.Rules {
		r := in.prog.Rules[id]
		added := relation.EvalRule(db, r)
		first.Firings = append(first.Firings, RuleFiring{Rule: r, Added: added})
		for _, t := range added {
			delta.relation(db, r.Head.Pred).Add(t)
		}
	}
	gt.Passes = append(gt.Passes, first)
	if !grp.Recursive(in.graph) || delta.empty() {
		return gt, nil
	}

	for pass := 2; ; pass++ {
		if err := ctx.Err(); err != nil {
			return gt, err
		}
		if in.opts.MaxPasses > 0 && pass > in.opts.MaxPasses {
			return gt, fmt.Errorf("group %s did not converge within %d passes", grp.Label(), in.opts.MaxPasses)
		}

		next := make(deltaSet)
		p := Pass{}
		for _, id := range grp.Rules {
			r := in.prog.Rules[id]
			added := evalRuleDelta(db, r, delta, next)
			p.Firings = append(p.Firings, RuleFiring{Rule: r, Added: added})
		}
		gt.Passes = append(gt.Passes, p)
		if next.empty() {
			return gt, nil
		}
		delta = next
	}
}

// evalRuleDelta derives new head tuples for r using the previous pass's
// deltas. For each body position holding a delta-tracked predicate, the
// body joins with the delta at that position and the full relations
// everywhere else; the union over positions is merged into the database.
func evalRuleDelta(db relation.Database, r ast.Rule, delta, next deltaSet) []relation.Tuple {
	head := db.Relation(r.Head.Pred)
	var added []relation.Tuple
	for j := range r.Body {
		d, ok := delta[r.Body[j].Pred]
		if !ok || d.Len() == 0 {
			continue
		}
		acc := relation.EvalBody(r, func(i int, atom ast.Atom) *relation.Relation {
			if i == j {
				return d
			}
			return db.Relation(atom.Pred)
		})
		for _, t := range relation.ProjectHead(acc, r.Head) {
			if head.Add(t) {
				added = append(added, t)
				next.relation(db, r.Head.Pred).Add(t)
			}
		}
	}
	sort.Slice(added, func(i, j int) bool { return less(added[i], added[j]) })
	return added
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
