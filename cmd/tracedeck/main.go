package main

import (
	"context"
	"fmt"
	"os"

	cliframework "github.com/urfave/cli/v3"

	"github.com/tracedeck/tracedeck/internal/cli"
)

const version = "0.1.0-dev"

func main() {
	app := &cliframework.Command{
		Name:    "tracedeck",
		Usage:   "Live dashboard for an agent trace store",
		Version: version,
		Commands: []*cliframework.Command{
			cli.DashCommand(),
			cli.ShowCommand(),
			cli.DeleteCommand(),
			cli.ResetMetricsCommand(),
			cli.ResetAllCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ error: %v\n", err)
		os.Exit(1)
	}
}
