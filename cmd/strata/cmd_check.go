package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strata/internal/engine"
	"strata/internal/logging"
	"strata/internal/oracle"
)

var differential bool

// checkCmd validates a program without printing a report
var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Parse and validate a program without evaluating it",
	Long: `Runs the parser and the static validator and reports the first error
found.

With --differential the program is additionally evaluated twice, once by
this engine and once by google/mangle, and the two saturated databases
are compared. Any asymmetric difference is printed and the command fails.`,
	Args: cobra.ExactArgs(1),
	RunE: checkProgram,
}

func init() {
	checkCmd.Flags().BoolVar(&differential, "differential", false, "Cross-check evaluation against google/mangle")

	rootCmd.AddCommand(checkCmd)
}

func checkProgram(cmd *cobra.Command, args []string) error {
	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d schemes, %d facts, %d rules, %d queries)\n",
		args[0], len(prog.Schemes), len(prog.Facts), len(prog.Rules), len(prog.Queries))

	if !differential {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	interp, err := engine.New(prog, engine.Options{
		SemiNaive: cfg.Engine.SemiNaive,
		MaxPasses: cfg.Engine.MaxPasses,
		Log:       logging.Get(logging.CategoryEval),
	})
	if err != nil {
		return err
	}
	res, err := interp.Run(ctx)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	logger.Debug("Engine pass complete",
		zap.Int("tuples", res.DB.TupleCount()),
		zap.Duration("duration", res.Duration))

	diff, err := oracle.Compare(prog, res.DB)
	if err != nil {
		return fmt.Errorf("differential check failed: %w", err)
	}
	if diff.Empty() {
		fmt.Printf("differential: ok (%d tuples agree)\n", res.DB.TupleCount())
		return nil
	}
	for _, m := range diff.Missing {
		fmt.Printf("missing (oracle derives, engine lacks): %s\n", m)
	}
	for _, e := range diff.Extra {
		fmt.Printf("extra (engine derives, oracle lacks): %s\n", e)
	}
	return fmt.Errorf("differential check found %d missing and %d extra tuples",
		len(diff.Missing), len(diff.Extra))
}
