// flag and command definitions for the plsync CLI
package main

import "github.com/urfave/cli/v3"

func fromFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "from",
		Aliases:  []string{"f"},
		Usage:    "Source platform (spotify, ytmusic, tidal)",
		Required: required,
		Sources:  cli.EnvVars("PLSYNC_FROM"),
	}
}

func toFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "to",
		Aliases:  []string{"t"},
		Usage:    "Destination platform (spotify, ytmusic, tidal)",
		Required: required,
		Sources:  cli.EnvVars("PLSYNC_TO"),
	}
}

// runFlags are shared by the commands driving the sync engine. Unset flags keep the [sync] config values.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "like-all", Usage: "Like every track added to a destination playlist"},
		&cli.BoolFlag{Name: "allow-cross-region", Usage: "Allow accounts registered in different countries"},
		&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Match and report without writing to the destination"},
		&cli.StringFlag{Name: "report-dir", Usage: "Write a CSV per playlist and a Markdown summary into this directory"},
	}
}

// setupCommand handles setup operations for configuration, database and YouTube Music headers.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and database, then run migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "rollback", Usage: "Revert the latest applied migration"},
		},
		Action: r.Setup,
		Commands: []*cli.Command{
			{
				Name:    "youtube",
				Aliases: []string{"yt", "ytmusic"},
				Usage:   "Configure YouTube Music authentication from browser headers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for browser.json (default: ~/.plsync/browser.json)",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}

// authCommand handles OAuth flows
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a streaming platform",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authorization code flow through the local callback server",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "no-browser", Usage: "Only print the authorization URL"}},
				Action: r.AuthSpotify,
			},
			{
				Name:   "tidal",
				Usage:  "Device authorization flow",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "no-browser", Usage: "Only print the verification URL"}},
				Action: r.AuthTidal,
			},
			{
				Name:   "status",
				Usage:  "Check the stored credentials of every platform",
				Action: r.AuthStatus,
			},
		},
	}
}

func syncCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		fromFlag(true),
		toFlag(true),
		&cli.BoolFlag{Name: "likes", Usage: "Also synchronize liked songs"},
		&cli.StringSliceFlag{Name: "only", Usage: "Only synchronize the playlist with this name (repeatable)"},
	}
	return &cli.Command{
		Name:   "sync",
		Usage:  "Synchronize playlists from one platform to another",
		Flags:  append(flags, runFlags()...),
		Action: r.Sync,
	}
}

func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "likes",
		Usage:  "Synchronize liked songs only",
		Flags:  append([]cli.Flag{fromFlag(true), toFlag(true)}, runFlags()...),
		Action: r.Likes,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a JSON snapshot of every playlist with its tracks",
		Flags: []cli.Flag{
			fromFlag(true),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Snapshot file (default: stdout)"},
			&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
		},
		Action: r.Export,
	}
}

func importCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		toFlag(true),
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Snapshot file written by export", Required: true},
	}
	return &cli.Command{
		Name:   "import",
		Usage:  "Synchronize the playlists of a snapshot to a platform",
		Flags:  append(flags, runFlags()...),
		Action: r.Import,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Number of runs to show", Value: 10},
			&cli.StringFlag{Name: "run", Usage: "Show the playlists of the run with this sequence number or id"},
		},
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command for the interactive sync monitor.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Pick playlists and follow a sync interactively",
		Flags:   []cli.Flag{fromFlag(true), toFlag(true), &cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}}},
		Action:  r.TUI,
	}
}
