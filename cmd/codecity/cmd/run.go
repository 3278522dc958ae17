package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/codecity/internal/config"
	"github.com/cwbudde/codecity/internal/host"
	"github.com/cwbudde/codecity/internal/interp"
	"github.com/spf13/cobra"
)

var (
	evalExpr    string
	maxTicks    int
	snapshotOut string
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a CodeCity program",
	Long: `Execute a program from a file or inline expression, spawning one
thread and ticking the scheduler until every thread quiesces (or --max-ticks
is reached).

Examples:
  # Run a script file
  codecity run world.js

  # Evaluate an inline expression
  codecity run -e "print(1 + 41)"

  # Run for at most 100 ticks, then checkpoint
  codecity run --max-ticks 100 --snapshot-out world.snapshot world.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().IntVar(&maxTicks, "max-ticks", 10000, "give up after this many scheduler ticks with no quiescence (0 means unlimited)")
	runCmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "write a snapshot here once the run quiesces or hits --max-ticks")
}

func runProgram(_ *cobra.Command, args []string) error {
	source, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	w := interp.New(
		interp.WithSink(host.FuncSink(func(line string) { fmt.Println(line) })),
		interp.WithStepBudget(cfg.Scheduler.StepBudget),
	)

	if _, err := w.LoadProgram(source); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	if _, err := w.Spawn(); err != nil {
		return err
	}

	for tick := 0; maxTicks == 0 || tick < maxTicks; tick++ {
		if w.Tick() == 0 {
			break
		}
	}

	if snapshotOut != "" {
		data, err := w.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		if err := os.WriteFile(snapshotOut, data, 0o644); err != nil {
			return fmt.Errorf("snapshot: writing %s: %w", snapshotOut, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "wrote snapshot to %s\n", snapshotOut)
		}
	}

	return nil
}

// readSource resolves the program text and a display name for error
// messages, either from --eval or from a file argument.
func readSource(eval string, args []string) (source, filename string, err error) {
	if eval != "" {
		return eval, "<eval>", nil
	}
	if len(args) != 1 {
		return "", "", fmt.Errorf("either provide a file path or use -e flag for inline code")
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	return string(content), args[0], nil
}
