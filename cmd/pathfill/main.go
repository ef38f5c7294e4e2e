// Command pathfill completes pipeline file parameters from attributes.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pathfill/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
