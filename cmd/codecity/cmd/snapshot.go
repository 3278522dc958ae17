package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/codecity/internal/config"
	"github.com/cwbudde/codecity/internal/host"
	"github.com/cwbudde/codecity/internal/interp"
	"github.com/spf13/cobra"
)

var snapshotTicks int

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <file> <out>",
	Short: "Run a program for a fixed number of ticks, then checkpoint it",
	Long: `Load a program, spawn one thread, advance the scheduler for
--ticks rounds (default 1), and write the resulting heap/scheduler state
to <out> in the record-array format that restore reads back.`,
	Args: cobra.ExactArgs(2),
	RunE: takeSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().IntVar(&snapshotTicks, "ticks", 1, "number of scheduler ticks to run before checkpointing")
}

func takeSnapshot(_ *cobra.Command, args []string) error {
	filename, out := args[0], args[1]

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	w := interp.New(
		interp.WithSink(host.FuncSink(func(line string) { fmt.Println(line) })),
		interp.WithStepBudget(cfg.Scheduler.StepBudget),
	)

	if _, err := w.LoadProgram(string(content)); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	if _, err := w.Spawn(); err != nil {
		return err
	}

	for i := 0; i < snapshotTicks; i++ {
		if w.Tick() == 0 {
			break
		}
	}

	data, err := w.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: writing %s: %w", out, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "wrote snapshot to %s\n", out)
	}
	return nil
}
