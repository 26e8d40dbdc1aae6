package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strata/internal/graph"
)

// graphCmd prints the structural analysis without evaluating anything
var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Print the rule dependency graph, reverse forest, and strata",
	Long: `Builds the rule dependency graph (an edge R -> S wherever a predicate
in R's body is the head predicate of S), prints it together with its
reverse, and lists the strongly connected components in evaluation order.
No rules are fired.`,
	Args: cobra.ExactArgs(1),
	RunE: showGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func showGraph(cmd *cobra.Command, args []string) error {
	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}
	logger.Debug("Analyzing program", zap.String("file", args[0]), zap.Int("rules", len(prog.Rules)))

	g := graph.Build(prog.Rules)
	if err := g.Validate(); err != nil {
		return err
	}
	order := graph.Stratify(g)

	fmt.Println("Dependency Graph")
	fmt.Print(g.String())
	fmt.Println()
	fmt.Println("Reverse Dependencies")
	fmt.Print(g.ReverseForest())
	fmt.Println()
	fmt.Println("Strata")
	for i, grp := range order {
		marker := ""
		if grp.Recursive(g) {
			marker = " (recursive)"
		}
		fmt.Printf("%d: %s%s\n", i+1, grp.Label(), marker)
	}
	return nil
}
