package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tracedeck/tracedeck/internal/api"
	"github.com/tracedeck/tracedeck/internal/viz"
)

// ShowCommand returns the CLI command definition for the 'show' subcommand.
// It fetches one trace and prints its waterfall (and optionally the span
// graph in Graphviz dot syntax) to the terminal.
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one trace as a waterfall",
		ArgsUsage: "<trace-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a JSON config file",
			},
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "Base URL of the trace store API",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Total line width",
				Value: 100,
			},
			&cli.BoolFlag{
				Name:  "dot",
				Usage: "Also print the span graph in Graphviz dot syntax",
			},
		},
		Action: runShow,
	}
}

func runShow(ctx context.Context, cmd *cli.Command) error {
	traceID := cmd.Args().First()
	if traceID == "" {
		return fmt.Errorf("usage: tracedeck show <trace-id>")
	}

	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.APIBaseURL)
	spans, err := client.GetTrace(ctx, traceID)
	if err != nil {
		return err
	}
	if len(spans) == 0 {
		return fmt.Errorf("trace %s has no spans", traceID)
	}

	bars := viz.WaterfallLayout(spans)
	failures := 0
	for _, bar := range bars {
		if bar.Status == api.StatusFailure {
			failures++
		}
	}

	fmt.Printf("Trace %s (%d spans, %d failed)\n", traceID, len(spans), failures)
	fmt.Print(viz.RenderWaterfall(bars, cmd.Int("width")))

	if cmd.Bool("dot") {
		fmt.Println()
		fmt.Print(viz.DOT(spans))
	}
	return nil
}
