package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/lukaszgryglicki/dishviz/internal/dishviz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	cfgPath string
	verbose bool
	outDir  string
	workers int
	animate string

	cfg    *dishviz.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dishviz",
	Short: "Render and aggregate dish simulation snapshot archives",
	Long: `dishviz reads per-update snapshot archives of a dish simulation.

It renders death-cause and resource-sharing frames (optionally stitched into an
animation), aggregates per-cell-update death rates into a CSV table, and plots
that table as a bar chart. Output names encode run metadata and content hashes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dishviz.Debug = verbose || os.Getenv("DEBUG") != ""
		config := zap.NewProductionConfig()
		if dishviz.Debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		dishviz.Log = logger

		if cfg, err = dishviz.LoadConfig(cfgPath); err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("out-dir") {
			cfg.OutDir = outDir
		}
		if flags.Changed("workers") {
			cfg.Workers = workers
		}
		if flags.Changed("animate") {
			cfg.Animate = animate
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config file (DISHVIZ_* env vars override it)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out-dir", "o", dishviz.DefaultOutDir, "Output directory")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "Parallel workers (default: one per CPU)")
	rootCmd.PersistentFlags().StringVar(&animate, "animate", "", "Also write an animation of rendered frames: gif or avi")

	renderCmd.AddCommand(renderDeathCmd)
	renderCmd.AddCommand(renderSharingCmd)

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(codCmd)
	rootCmd.AddCommand(summaryCmd)
}

func main() {
	os.Exit(run())
}

// run executes the command tree and returns the process exit code, so that deferred
// cleanup happens before os.Exit.
func run() int {
	if os.Getenv("PROFILE") != "" {
		f, err := os.Create("cpu.out")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
