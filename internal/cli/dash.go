package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tracedeck/tracedeck/internal/api"
	"github.com/tracedeck/tracedeck/internal/dispatch"
	"github.com/tracedeck/tracedeck/internal/poller"
	"github.com/tracedeck/tracedeck/internal/store"
	"github.com/tracedeck/tracedeck/internal/webui"
)

// DashCommand returns the CLI command definition for the 'dash' subcommand.
// This command runs the polling loop and serves the web dashboard.
func DashCommand() *cli.Command {
	return &cli.Command{
		Name:  "dash",
		Usage: "Run the live dashboard for a trace store",
		Description: `Polls the trace store for the trace list and analytics snapshot,
serves the dashboard UI on a local HTTP port, and pushes updates to the
browser over WebSocket.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a JSON config file",
			},
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "Base URL of the trace store API",
			},
			&cli.StringFlag{
				Name:  "interval",
				Usage: "Poll interval (e.g. 5s)",
			},
			&cli.StringFlag{
				Name:  "http-host",
				Usage: "Dashboard HTTP bind address",
			},
			&cli.IntFlag{
				Name:  "http-port",
				Usage: "Dashboard HTTP port",
			},
			&cli.StringFlag{
				Name:  "presets",
				Usage: "Path to a YAML file of named date-range filter presets",
			},
			&cli.StringFlag{
				Name:  "preset",
				Usage: "Name of a preset to apply at startup",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose logging",
			},
		},
		Action: runDash,
	}
}

// effectiveConfig loads the layered config and applies the flag overrides
// shared by every subcommand.
func effectiveConfig(cmd *cli.Command) (*Config, error) {
	cfg, err := LoadEffectiveConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	cfg = MergeConfigs(cfg, &Config{
		APIBaseURL: cmd.String("api-url"),
	})
	return cfg, nil
}

// runDash is the action handler for the dash command. It wires together
// all components: API client, store, poller, dispatcher, and web UI.
func runDash(cliCtx context.Context, cmd *cli.Command) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	cfg = MergeConfigs(cfg, &Config{
		PollInterval: cmd.String("interval"),
		HTTPHost:     cmd.String("http-host"),
		HTTPPort:     cmd.Int("http-port"),
		PresetsFile:  cmd.String("presets"),
		Verbose:      cmd.Bool("verbose"),
	})

	interval, err := time.ParseDuration(cfg.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid poll interval %q: %w", cfg.PollInterval, err)
	}

	if cfg.Verbose {
		log.Println("🔧 Configuration:")
		log.Printf("  Trace store: %s\n", cfg.APIBaseURL)
		log.Printf("  Poll interval: %s\n", interval)
		log.Printf("  Dashboard: http://%s:%d/ui/\n", cfg.HTTPHost, cfg.HTTPPort)
		log.Println()
	}

	client := api.NewClient(cfg.APIBaseURL)
	st := store.New()
	p := poller.New(client, st, interval)
	// Browser dialogs confirm destructive commands before they reach us.
	d := dispatch.New(client, st, p, dispatch.AutoConfirm)
	ui := webui.New(st, p, d)

	// Filter presets: apply the requested one now, re-apply on file change.
	activePreset := cmd.String("preset")
	if cfg.PresetsFile != "" {
		presets, err := LoadPresets(cfg.PresetsFile)
		if err != nil {
			return err
		}
		log.Printf("📋 Loaded %d filter presets: %v\n", len(presets), PresetNames(presets))
		if activePreset != "" {
			filter, ok := presets[activePreset]
			if !ok {
				return fmt.Errorf("unknown preset %q (have %v)", activePreset, PresetNames(presets))
			}
			st.SetFilter(filter)
		}

		stop, err := WatchPresets(cfg.PresetsFile, func(presets map[string]api.FilterParams) {
			log.Printf("📋 Presets reloaded: %v\n", PresetNames(presets))
			if activePreset == "" {
				return
			}
			if filter, ok := presets[activePreset]; ok {
				st.SetFilter(filter)
			}
		})
		if err != nil {
			return err
		}
		defer stop()
	} else if activePreset != "" {
		return fmt.Errorf("--preset requires a presets file")
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go p.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	log.Printf("🌐 Dashboard listening on http://%s/ui/\n", addr)
	log.Printf("🎯 Polling %s every %s\n", cfg.APIBaseURL, interval)

	if err := ui.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("dashboard server error: %w", err)
	}
	return nil
}
