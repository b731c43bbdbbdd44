package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"site_e2e/presentation/terminal"
)

func main() {
	termInterface := terminal.NewTerminalInterface(os.Stdout, os.Stderr)
	if err := termInterface.Execute(context.Background(), os.Args[1:]); err != nil {
		// failed scenarios are already in the printed report
		if !errors.Is(err, terminal.ErrScenariosFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
