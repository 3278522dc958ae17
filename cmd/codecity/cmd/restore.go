package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/codecity/internal/config"
	"github.com/cwbudde/codecity/internal/host"
	"github.com/cwbudde/codecity/internal/interp"
	"github.com/spf13/cobra"
)

var restoreMaxTicks int

var restoreCmd = &cobra.Command{
	Use:   "restore <program> <snapshot>",
	Short: "Resume a program from a snapshot and keep ticking it",
	Long: `Parse <program> (the same source the snapshot was taken against —
spec §4.8's decode precondition), decode <snapshot> into a fresh heap, and
keep advancing the restored threads until they quiesce or --max-ticks is
reached.`,
	Args: cobra.ExactArgs(2),
	RunE: restoreSnapshot,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().IntVar(&restoreMaxTicks, "max-ticks", 10000, "give up after this many scheduler ticks with no quiescence (0 means unlimited)")
}

func restoreSnapshot(_ *cobra.Command, args []string) error {
	programPath, snapshotPath := args[0], args[1]

	source, err := os.ReadFile(programPath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", programPath, err)
	}
	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", snapshotPath, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	w := interp.New(
		interp.WithSink(host.FuncSink(func(line string) { fmt.Println(line) })),
		interp.WithStepBudget(cfg.Scheduler.StepBudget),
	)

	if _, err := w.LoadProgram(string(source)); err != nil {
		return fmt.Errorf("%s: %w", programPath, err)
	}
	if err := w.Restore(data); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	for tick := 0; restoreMaxTicks == 0 || tick < restoreMaxTicks; tick++ {
		if w.Tick() == 0 {
			break
		}
	}

	return nil
}
