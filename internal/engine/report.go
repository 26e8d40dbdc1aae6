package engine

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"strata/internal/ast"
	"strata/internal/relation"
)

// FormatReport renders one run in the fixed output layout: the dependency
// graph, the evaluation trace, then one block per query in program order. A
// blank line separates the sections.
func FormatReport(res *Result) string {
	var b strings.Builder
	b.WriteString("Dependency Graph\n")
	b.WriteString(res.Graph.String())
	b.WriteString("\n")
	b.WriteString("Rule Evaluation\n")
	b.WriteString(FormatTrace(res.Traces))
	b.WriteString("\n")
	for _, blk := range formatQueryBlocks(res.Queries) {
		b.WriteString(blk)
	}
	return b.String()
}

// FormatTrace renders the evaluation trace. Each group opens with its SCC
// header, prints every rule once per pass with the tuples that pass added as
// indented head-variable bindings, and closes with the pass count.
func FormatTrace(traces []GroupTrace) string {
	var b strings.Builder
	for _, gt := range traces {
		b.WriteString("SCC: ")
		b.WriteString(gt.Group.Label())
		b.WriteString("\n")
		for _, p := range gt.Passes {
			for _, f := range p.Firings {
				b.WriteString(f.Rule.String())
				b.WriteString("\n")
				vars := f.Rule.Head.Variables()
				cols := varColumns(f.Rule.Head)
				for _, t := range f.Added {
					b.WriteString("  ")
					b.WriteString(formatBindings(vars, pickValues(t, cols)))
					b.WriteString("\n")
				}
			}
		}
		fmt.Fprintf(&b, "%d passes: %s\n", len(gt.Passes), gt.Group.Label())
	}
	return b.String()
}

// FormatQueryBlock renders one query's answer: "query? No" on a miss,
// otherwise "query? Yes(n)" followed by one indented binding line per
// result tuple. Ground queries print only the count line.
func FormatQueryBlock(qr relation.QueryResult) string {
	if !qr.Matched() {
		return qr.Query.String() + " No\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s Yes(%d)\n", qr.Query, qr.Count)
	if len(qr.Vars) == 0 {
		return b.String()
	}
	for _, t := range qr.Tuples {
		b.WriteString("  ")
		b.WriteString(formatBindings(qr.Vars, t))
		b.WriteString("\n")
	}
	return b.String()
}

// formatQueryBlocks renders the blocks concurrently, one task per query over
// the immutable results, and reassembles them in program order.
func formatQueryBlocks(results []relation.QueryResult) []string {
	blocks := make([]string, len(results))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range results {
		g.Go(func() error {
			blocks[i] = FormatQueryBlock(results[i])
			return nil
		})
	}
	_ = g.Wait() // the tasks only format; no errors to collect
	return blocks
}

// varColumns maps the head's distinct variables to the argument index each
// first appears at.
func varColumns(head ast.Atom) []int {
	first := make(map[string]int, len(head.Args))
	for i, arg := range head.Args {
		if arg.Constant {
			continue
		}
		if _, ok := first[arg.Value]; !ok {
			first[arg.Value] = i
		}
	}
	vars := head.Variables()
	cols := make([]int, len(vars))
	for k, v := range vars {
		cols[k] = first[v]
	}
	return cols
}

func pickValues(t relation.Tuple, cols []int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = t[c]
	}
	return out
}

func formatBindings(names, values []string) string {
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString("='")
		b.WriteString(values[i])
		b.WriteString("'")
	}
	return b.String()
}
