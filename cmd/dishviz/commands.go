package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/lukaszgryglicki/dishviz/internal/dishviz"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render snapshot frames of one archive",
}

var renderDeathCmd = &cobra.Command{
	Use:   "death <archive> <update>...",
	Short: "Color live cells by death cause, dead cells black",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd, args, dishviz.ModeDeath)
	},
}

var renderSharingCmd = &cobra.Command{
	Use:   "sharing <archive> <update>...",
	Short: "Shade live cells by resource sharing and draw channel boundaries",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd, args, dishviz.ModeSharing)
	},
}

var codCmd = &cobra.Command{
	Use:   "cod <first> <last> <archive>...",
	Short: "Tabulate per-cell-update death rates over updates [first, last)",
	Long: `Counts death causes for every population slot over updates [first, last)
of each archive and writes one CSV table. All archives must share a source hash.
Archives that cannot be read are logged and skipped.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runCauseOfDeath,
}

var summaryCmd = &cobra.Command{
	Use:   "summary <table.csv>",
	Short: "Plot mean death rate per treatment and cause from a cod table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := dishviz.PlotSummary(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid update %q: %w", a, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func runRender(cmd *cobra.Command, args []string, mode dishviz.Mode) error {
	updates, err := parseInts(args[1:])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	paths, err := dishviz.RenderBatch(ctx, cfg, args[0], updates, mode)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

func runCauseOfDeath(cmd *cobra.Command, args []string) error {
	bounds, err := parseInts(args[:2])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	out, err := dishviz.RunCauseOfDeath(ctx, cfg, bounds[0], bounds[1], args[2:])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
