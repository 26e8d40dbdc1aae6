package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"strata/internal/ast"
	"strata/internal/config"
	"strata/internal/logging"
	"strata/internal/parser"
)

const version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string
	workspace  string
	timeout    time.Duration

	// Loaded configuration, set by PersistentPreRunE before any RunE runs.
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "strata - stratified Datalog evaluation engine",
	Long: `strata evaluates Datalog programs by stratified fixpoint iteration.

A program is four sections (Schemes, Facts, Rules, Queries). The engine
builds the rule dependency graph, collapses it into strongly connected
components, orders the components topologically, and runs every component
to fixpoint before answering the queries.

Commands operate on a single program file; 'strata repl' opens an
interactive query loop over the saturated database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initWorkspace(); err != nil {
			return err
		}

		// Skip the operator logger for interactive mode (it has its own UI)
		if cmd.Name() == "repl" {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

// versionCmd prints the release version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the strata version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("strata %s\n", version)
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.strata/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Evaluation timeout")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initWorkspace points the categorized file logger at the workspace and
// loads the YAML config. Both tolerate absence: no config file means
// defaults, no logging gate means silence.
func initWorkspace() error {
	ws := workspace
	if ws == "" {
		ws, _ = os.Getwd()
	}
	if err := logging.Initialize(ws); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// loadProgram reads, parses, and statically validates one program file.
// Errors carry the path so watch-mode reruns read well.
func loadProgram(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	prog, err := parser.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}
