// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles database initialization and config scaffolding.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}

// sortCommand runs the sequencing engine over a songs file.
func sortCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sort",
		Usage: "Sort a song collection for shared listening",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to songs JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (requires --format)",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Fixed shuffle seed for reproducible runs",
			},
			&cli.BoolFlag{
				Name:  "skip-ai",
				Usage: "Skip AI verification entirely",
			},
			&cli.BoolFlag{
				Name:  "skip-queue",
				Usage: "Fail verification fast instead of waiting for a queue slot",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Sort,
	}
}

// cacheCommand handles platform-identity cache operations.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Resolve songs to platform-native track IDs",
		Commands: []*cli.Command{
			{
				Name:  "lookup",
				Usage: "Resolve a single track",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Track title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "artist",
						Usage:    "Track artist",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheLookup,
			},
			{
				Name:  "batch",
				Usage: "Resolve a songs file concurrently",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to songs JSON file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CacheBatch,
			},
			{
				Name:   "stats",
				Usage:  "Show cache occupancy and limits",
				Action: r.CacheStats,
			},
		},
	}
}

// queueCommand inspects the verification queue.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Verification queue operations",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show a point-in-time queue health snapshot",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.QueueStatus,
			},
		},
	}
}

// serveCommand runs the diagnostic HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve queue, health, and metrics endpoints over HTTP",
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive sorting.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for sorting a song collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to songs JSON file",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "skip-ai",
				Usage: "Skip AI verification entirely",
			},
			&cli.BoolFlag{
				Name:  "skip-queue",
				Usage: "Fail verification fast instead of waiting for a queue slot",
			},
		},
		Action: r.TUI,
	}
}
