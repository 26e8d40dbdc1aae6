package engine

import (
	"context"
	"fmt"

	"strata/internal/ast"
	"strata/internal/relation"
)

// EvalNaive ignores stratification and sweeps every rule in ID order until a
// whole sweep derives nothing. It returns the saturated database and the
// sweep count. Slower than the stratified run but trivially correct, which
// makes it the cross-check target: both evaluators must land on the same
// database.
func EvalNaive(ctx context.Context, prog *ast.Program, maxPasses int) (relation.Database, int, error) {
	db := relation.NewDatabase(prog)
	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if maxPasses > 0 && pass > maxPasses {
			return nil, 0, fmt.Errorf("naive evaluation did not converge within %d passes", maxPasses)
		}
		added := 0
		for _, r := range prog.Rules {
			added += len(relation.EvalRule(db, r))
		}
		if added == 0 {
			return db, pass, nil
		}
	}
}
