package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strata/internal/ast"
	"strata/internal/engine"
	"strata/internal/logging"
	"strata/internal/store"
)

var (
	semiNaive    bool
	maxPasses    int
	saveSnapshot bool
)

// runCmd evaluates a program file and prints the run report
var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Evaluate a program and print the run report",
	Long: `Parses the program, stratifies its rule dependency graph, evaluates
every stratum to fixpoint in dependency order, and prints the dependency
graph, the evaluation trace, and one answer block per query.

With snapshots enabled (snapshot.enabled in the config, or --snapshot)
the saturated database is persisted to the snapshot store afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runProgram,
}

func init() {
	runCmd.Flags().BoolVar(&semiNaive, "semi-naive", false, "Delta evaluation for recursive groups")
	runCmd.Flags().IntVar(&maxPasses, "max-passes", 0, "Bound fixpoint passes per group (0 = unbounded)")
	runCmd.Flags().BoolVar(&saveSnapshot, "snapshot", false, "Persist this run to the snapshot store")

	rootCmd.AddCommand(runCmd)
}

func runProgram(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}
	logger.Info("Program loaded",
		zap.String("file", args[0]),
		zap.Int("facts", len(prog.Facts)),
		zap.Int("rules", len(prog.Rules)),
		zap.Int("queries", len(prog.Queries)))

	interp, err := engine.New(prog, engineOptions(cmd))
	if err != nil {
		return err
	}
	res, err := interp.Run(ctx)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	fmt.Print(engine.FormatReport(res))

	logger.Info("Run complete",
		zap.String("run_id", res.RunID),
		zap.Int("new_tuples", res.NewTuples),
		zap.Int("passes", res.TotalPasses()),
		zap.Duration("duration", res.Duration))

	if cfg.Snapshot.Enabled || saveSnapshot {
		if err := persistSnapshot(prog, res); err != nil {
			return fmt.Errorf("snapshot failed: %w", err)
		}
	}
	return nil
}

// engineOptions resolves evaluator options: config values first, explicit
// command-line flags on top.
func engineOptions(cmd *cobra.Command) engine.Options {
	opts := engine.Options{
		SemiNaive: cfg.Engine.SemiNaive,
		MaxPasses: cfg.Engine.MaxPasses,
		Log:       logging.Get(logging.CategoryEval),
	}
	if cmd.Flags().Changed("semi-naive") {
		opts.SemiNaive = semiNaive
	}
	if cmd.Flags().Changed("max-passes") {
		opts.MaxPasses = maxPasses
	}
	return opts
}

func persistSnapshot(prog *ast.Program, res *engine.Result) error {
	st, err := store.Open(cfg.Snapshot.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Save(prog, res)
	if err != nil {
		return err
	}
	logger.Info("Snapshot saved",
		zap.Int64("snapshot_id", id),
		zap.String("run_id", res.RunID),
		zap.String("db", cfg.Snapshot.DatabasePath))
	return nil
}
