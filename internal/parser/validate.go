package parser

import (
	"fmt"

	"strata/internal/ast"
)

// Validate checks the program against its Schemes section: every predicate
// appearing in a fact, rule head, rule body, or query must be declared with
// matching arity, scheme names must be unique, and facts must be ground.
// The graph and engine assume a validated program.
func Validate(prog *ast.Program) error {
	arity := make(map[string]int, len(prog.Schemes))
	for _, s := range prog.Schemes {
		if _, dup := arity[s.Pred.Name]; dup {
			return fmt.Errorf("scheme %s declared twice", s.Pred.Name)
		}
		arity[s.Pred.Name] = s.Pred.Arity
	}

	for _, f := range prog.Facts {
		if err := checkPred(arity, f.Pred, "fact"); err != nil {
			return err
		}
	}
	for _, r := range prog.Rules {
		if err := checkPred(arity, r.Head.Pred, "rule head"); err != nil {
			return err
		}
		bound := make(map[string]bool)
		for _, atom := range r.Body {
			if err := checkPred(arity, atom.Pred, "rule body"); err != nil {
				return err
			}
			for _, v := range atom.Variables() {
				bound[v] = true
			}
		}
		// Range restriction: an unbound head variable has no value source.
		for _, v := range r.Head.Variables() {
			if !bound[v] {
				return fmt.Errorf("rule %s: head variable %s does not appear in the body", r, v)
			}
		}
	}
	for _, q := range prog.Queries {
		if err := ValidateQuery(prog, q); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQuery checks a single query against the program's schemes. Split
// out so ad-hoc queries can be validated before hitting the database.
func ValidateQuery(prog *ast.Program, q ast.Query) error {
	arity := make(map[string]int, len(prog.Schemes))
	for _, s := range prog.Schemes {
		arity[s.Pred.Name] = s.Pred.Arity
	}
	return checkPred(arity, q.Atom.Pred, "query")
}

func checkPred(arity map[string]int, pred ast.PredicateSym, where string) error {
	declared, ok := arity[pred.Name]
	if !ok {
		return fmt.Errorf("%s predicate %s is not declared in Schemes", where, pred.Name)
	}
	if declared != pred.Arity {
		return fmt.Errorf("%s predicate %s used with %d arguments, scheme declares %d", where, pred.Name, pred.Arity, declared)
	}
	return nil
}
