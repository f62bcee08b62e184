package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/formwell/formwell/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		// Commands print their own formatted errors; cobra-level errors
		// (bad flags, unknown subcommands) still need reporting here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
