package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/codecity/internal/config"
	"github.com/spf13/cobra"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a starter codecity.yaml with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runInitConfig,
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("init-config: %s already exists", configPath)
	}
	if err := config.Write(configPath, config.Default()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", configPath)
	return nil
}
