// Package engine evaluates Datalog programs. It stratifies the rule
// dependency graph and runs each group of rules to fixpoint in dependency
// order, recording a per-pass trace for the run report. Evaluation is full
// re-computation per pass by default; the delta evaluator in this package
// is an opt-in refinement that must reach the same database.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"strata/internal/ast"
	"strata/internal/graph"
	"strata/internal/logging"
	"strata/internal/relation"
)

// Options configure an interpreter.
type Options struct {
	// SemiNaive switches recursive groups to delta evaluation.
	SemiNaive bool
	// MaxPasses bounds the passes spent on any one group; 0 means no bound.
	// Termination is guaranteed either way on finite constant universes, so
	// the bound exists to catch runaway inputs in long-lived processes.
	MaxPasses int
	// Log receives evaluation diagnostics. Nil discards them.
	Log *logging.Logger
}

// Interpreter holds one program together with its dependency graph and
// stratification. Build one with New, then call Run.
type Interpreter struct {
	prog  *ast.Program
	graph *graph.Graph
	order []graph.Group
	opts  Options
}

// New builds the dependency graph for the program, checks its edge-set
// consistency, and stratifies it.
func New(prog *ast.Program, opts Options) (*Interpreter, error) {
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	g := graph.Build(prog.Rules)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	order := graph.Stratify(g)
	opts.Log.Debug("graph built: %d rules, %d groups", g.Size(), len(order))
	return &Interpreter{prog: prog, graph: g, order: order, opts: opts}, nil
}

// Graph returns the rule dependency graph.
func (in *Interpreter) Graph() *graph.Graph { return in.graph }

// Groups returns the strata in evaluation order.
func (in *Interpreter) Groups() []graph.Group { return in.order }

// Program returns the interpreted program.
func (in *Interpreter) Program() *ast.Program { return in.prog }

// RuleFiring records the tuples one rule added during one pass, sorted.
type RuleFiring struct {
	Rule  ast.Rule
	Added []relation.Tuple
}

// Pass is one sweep over a group's rules in ascending ID order.
type Pass struct {
	Firings []RuleFiring
}

// GroupTrace is the evaluation record of one group: the passes it took to
// reach fixpoint, the last of which added nothing for recursive groups.
type GroupTrace struct {
	Group  graph.Group
	Passes []Pass
}

// Result is one complete run: the saturated database, the trace that
// produced it, and the query answers.
type Result struct {
	RunID     string
	Graph     *graph.Graph
	Groups    []graph.Group
	Traces    []GroupTrace
	DB        relation.Database
	Queries   []relation.QueryResult
	NewTuples int
	Duration  time.Duration
}

// TotalPasses sums the pass counts across groups.
func (r *Result) TotalPasses() int {
	n := 0
	for _, gt := range r.Traces {
		n += len(gt.Passes)
	}
	return n
}

// Run evaluates the program: each group to fixpoint in stratification order,
// then every query against the saturated database. Groups already evaluated
// are never revisited. The context is checked between passes.
func (in *Interpreter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:  uuid.NewString(),
		Graph:  in.graph,
		Groups: in.order,
		DB:     relation.NewDatabase(in.prog),
	}
	in.opts.Log.Info("run %s: %d rules, %d groups", res.RunID, len(in.prog.Rules), len(in.order))

	for _, grp := range in.order {
		var gt GroupTrace
		var err error
		if in.opts.SemiNaive {
			gt, err = in.evalGroupDelta(ctx, res.DB, grp)
		} else {
			gt, err = in.evalGroup(ctx, res.DB, grp)
		}
		res.Traces = append(res.Traces, gt)
		if err != nil {
			return nil, err
		}
		for _, p := range gt.Passes {
			for _, f := range p.Firings {
				res.NewTuples += len(f.Added)
			}
		}
		in.opts.Log.Debug("group %s: %d passes", grp.Label(), len(gt.Passes))
	}

	for _, q := range in.prog.Queries {
		res.Queries = append(res.Queries, relation.EvalQuery(res.DB, q))
	}
	res.Duration = time.Since(start)
	in.opts.Log.Info("run %s: %d new tuples, %d passes, %v", res.RunID, res.NewTuples, res.TotalPasses(), res.Duration)
	return res, nil
}

// evalGroup runs one group to fixpoint with full re-evaluation per pass.
// A pass sweeps the group's rules ascending; the group is done after the
// first pass that adds nothing. Non-recursive groups cannot feed themselves
// and run exactly one pass.
func (in *Interpreter) evalGroup(ctx context.Context, db relation.Database, grp graph.Group) (GroupTrace, error) {
	gt := GroupTrace{Group: grp}
	recursive := grp.Recursive(in.graph)
	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return gt, err
		}
		if in.opts.MaxPasses > 0 && pass > in.opts.MaxPasses {
			return gt, fmt.Errorf("group %s did not converge within %d passes", grp.Label(), in.opts.MaxPasses)
		}
		p := Pass{}
		added := 0
		for _, id := range grp.Rules {
			r := in.prog.Rules[id]
			newTuples := relation.EvalRule(db, r)
			p.Firings = append(p.Firings, RuleFiring{Rule: r, Added: newTuples})
			added += len(newTuples)
		}
		gt.Passes = append(gt.Passes, p)
		if added == 0 || !recursive {
			return gt, nil
		}
	}
}
