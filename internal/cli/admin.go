package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tracedeck/tracedeck/internal/api"
	"github.com/tracedeck/tracedeck/internal/dispatch"
	"github.com/tracedeck/tracedeck/internal/store"
)

// terminalConfirmer prompts on stderr and reads a y/N answer from stdin.
type terminalConfirmer struct{}

func (terminalConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// adminFlags are shared by the destructive subcommands.
func adminFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a JSON config file",
		},
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "Base URL of the trace store API",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Skip the confirmation prompt",
		},
	}
}

// newDispatcher builds a one-shot dispatcher for administrative commands.
// There is no polling loop here, so no refresher: the next dashboard
// refresh reconciles on its own.
func newDispatcher(cmd *cli.Command) (*dispatch.Dispatcher, error) {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}
	var confirm dispatch.Confirmer = terminalConfirmer{}
	if cmd.Bool("yes") {
		confirm = dispatch.AutoConfirm
	}
	return dispatch.New(api.NewClient(cfg.APIBaseURL), store.New(), nil, confirm), nil
}

// DeleteCommand returns the 'delete' subcommand: delete one trace.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete one trace from the trace store",
		ArgsUsage: "<trace-id>",
		Flags:     adminFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			traceID := cmd.Args().First()
			if traceID == "" {
				return fmt.Errorf("usage: tracedeck delete <trace-id>")
			}
			d, err := newDispatcher(cmd)
			if err != nil {
				return err
			}
			if err := d.DeleteTrace(ctx, traceID); err != nil {
				if errors.Is(err, dispatch.ErrDeclined) {
					log.Println("Aborted.")
					return nil
				}
				return err
			}
			log.Printf("🗑️  Deleted trace %s\n", traceID)
			return nil
		},
	}
}

// ResetMetricsCommand returns the 'reset-metrics' subcommand.
func ResetMetricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-metrics",
		Usage: "Clear the trace store's analytics metrics",
		Flags: adminFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			d, err := newDispatcher(cmd)
			if err != nil {
				return err
			}
			if err := d.ResetMetrics(ctx); err != nil {
				if errors.Is(err, dispatch.ErrDeclined) {
					log.Println("Aborted.")
					return nil
				}
				return err
			}
			log.Println("🗑️  Analytics metrics cleared")
			return nil
		},
	}
}

// ResetAllCommand returns the 'reset-all' subcommand.
func ResetAllCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-all",
		Usage: "Clear all traces and analytics from the trace store",
		Flags: adminFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			d, err := newDispatcher(cmd)
			if err != nil {
				return err
			}
			if err := d.ResetAll(ctx); err != nil {
				if errors.Is(err, dispatch.ErrDeclined) {
					log.Println("Aborted.")
					return nil
				}
				return err
			}
			log.Println("🗑️  All traces and metrics cleared")
			return nil
		},
	}
}
