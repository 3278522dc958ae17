package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "codecity",
	Short: "CodeCity world launcher",
	Long: `codecity runs a persistent, checkpointable JavaScript-family world
process: it parses a program, spawns threads against it, advances them
cooperatively, and can snapshot and restore the whole world's heap and
scheduler state.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "codecity.yaml", "path to launcher config")
}
