// Command codecity runs, checkpoints, and inspects CodeCity worlds.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/codecity/cmd/codecity/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
