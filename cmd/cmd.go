// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/ytmeta/internal/formatter"
	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the run history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage YouTube authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize in the browser and save the token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the consent URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the saved token state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Also refresh the token and call the API",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// updateCommand handles sheet-driven metadata updates
func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Update video metadata from a sheet",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Apply every row of a CSV or XLSX sheet",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent workers (1-8); defaults to pipeline.workers",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Show the live status table",
					},
					&cli.StringFlag{
						Name:    "report",
						Aliases: []string{"o"},
						Usage:   "Write a result report to this path",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Report format: csv, json, markdown or txt; guessed from --report when empty",
					},
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Serve the live event stream on this address; defaults to web.listen",
					},
					&cli.StringFlag{
						Name:  "log",
						Usage: "Append the run log, one [HH:MM:SS] [row] line per event, to this file",
					},
				},
				Action: r.UpdateRun,
			},
			{
				Name:  "check",
				Usage: "Preview how each row would be applied, without calling the API",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UpdateCheck,
			},
		},
	}
}

// playlistsCommand lists the authorized channel's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your playlists with their IDs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}

// videosCommand handles channel video lookups
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "videos",
		Usage: "Channel video lookups",
		Commands: []*cli.Command{
			{
				Name:  "recent",
				Usage: "List your most recent uploads",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "max",
						Aliases: []string{"n"},
						Usage:   "Number of videos to list (1-50)",
						Value:   10,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RecentVideos,
			},
		},
	}
}

// categoriesCommand prints the category table
func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "categories",
		Usage:  "List valid category codes",
		Action: r.Categories,
	}
}

// historyCommand handles run history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect past update runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of runs to list",
						Value:   20,
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show the row results of a run by ID or #sequence",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "run"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: txt, csv, json or markdown",
						Value: formatter.FormatText,
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}
