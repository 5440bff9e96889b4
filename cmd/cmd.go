// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func dryRunFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Report what would change without touching the playlist",
	}
}

func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write this run's unresolved entries to a file",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: "Report format: json, csv or markdown",
			Value: "json",
		},
	}
}

// syncCommand handles playlist synchronization runs
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync the playlist with chart history",
		Commands: []*cli.Command{
			{
				Name:   "auto",
				Usage:  "Backfill on first run, otherwise append the latest number one",
				Flags:  append([]cli.Flag{configFlag(), dryRunFlag()}, reportFlags()...),
				Action: r.SyncAuto,
			},
			{
				Name:   "backfill",
				Usage:  "Process the entire historical chart sequence",
				Flags:  append([]cli.Flag{configFlag(), dryRunFlag()}, reportFlags()...),
				Action: r.SyncBackfill,
			},
			{
				Name:    "append",
				Aliases: []string{"latest"},
				Usage:   "Append only the most recent number one, if new",
				Flags:   append([]cli.Flag{configFlag(), dryRunFlag()}, reportFlags()...),
				Action:  r.SyncAppendLatest,
			},
			{
				Name:   "rebuild",
				Usage:  "Recompute the canonical ordering and replace the playlist",
				Flags:  append([]cli.Flag{configFlag(), dryRunFlag()}, reportFlags()...),
				Action: r.SyncRebuild,
			},
			{
				Name:  "clear",
				Usage: "Empty the playlist and reset the added and not-found stores",
				Flags: []cli.Flag{configFlag(), dryRunFlag(), &cli.BoolFlag{
					Name:  "yes",
					Usage: "Skip the confirmation prompt",
				}},
				Action: r.SyncClear,
			},
		},
	}
}

// chartCommand handles chart harvesting and inspection
func chartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Harvest and inspect chart history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Harvest all chart pages and list qualifying entries",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, markdown, text)",
						Value: "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write entries to a file instead of stdout",
					},
				},
				Action: r.ChartList,
			},
			{
				Name:  "latest",
				Usage: "Show the current number one",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.ChartLatest,
			},
			{
				Name:    "browse",
				Aliases: []string{"ui"},
				Usage:   "Browse chart history in an interactive TUI",
				Flags:   []cli.Flag{configFlag()},
				Action:  r.ChartBrowse,
			},
		},
	}
}

// cacheCommand handles the resolution cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and invalidate the resolution cache",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show cached resolutions",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.CacheShow,
			},
			{
				Name:  "clear",
				Usage: "Invalidate cached resolutions so the next run searches again",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "yes", Usage: "Skip the confirmation prompt"},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify via the browser and save the refresh token",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// setupCommand handles setup operations for config and the metadata cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and initialize the track metadata cache",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}
