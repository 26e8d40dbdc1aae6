package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strata/internal/engine"
	"strata/internal/logging"
	"strata/internal/watch"
)

// watchCmd re-evaluates the program whenever its file changes
var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Re-evaluate the program whenever the file changes",
	Long: `Evaluates the program once, prints the report, then watches the file.
Each settled change (editor save bursts are debounced) re-parses and
re-evaluates the fresh contents and prints a new report. Parse and
evaluation errors are reported without stopping the watch.`,
	Args: cobra.ExactArgs(1),
	RunE: watchProgram,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchProgram(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evaluate := func(ctx context.Context, path string) {
		prog, err := loadProgram(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		interp, err := engine.New(prog, engine.Options{
			SemiNaive: cfg.Engine.SemiNaive,
			MaxPasses: cfg.Engine.MaxPasses,
			Log:       logging.Get(logging.CategoryEval),
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		res, err := interp.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "evaluation failed: %v\n", err)
			return
		}
		fmt.Print(engine.FormatReport(res))

		if cfg.Snapshot.Enabled {
			if err := persistSnapshot(prog, res); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	}

	evaluate(ctx, args[0])

	onChange := func(ctx context.Context, path string) {
		fmt.Printf("--- %s\n", time.Now().Format("15:04:05"))
		evaluate(ctx, path)
	}

	w, err := watch.New(args[0], cfg.GetDebounce(), onChange)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	logger.Info("Watching for changes",
		zap.String("file", w.Path()),
		zap.Duration("debounce", cfg.GetDebounce()))
	fmt.Fprintf(os.Stderr, "watching %s (Ctrl+C to stop)\n", args[0])

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	w.Stop()
	stats := w.GetStats()
	logger.Info("Watch stopped",
		zap.Int("events", stats.Events),
		zap.Int("runs", stats.Runs),
		zap.Int("errors", stats.Errors))
	return nil
}
