// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func platformFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Source platform for bare IDs (spotify or apple)",
	}
}

// matchCommand resolves one or more links given as arguments or on stdin.
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "match",
		Aliases:   []string{"m"},
		Usage:     "Find a track on the other platform",
		ArgsUsage: "<url-or-id>",
		Description: `Resolves a Spotify or Apple Music track link (or bare ID with --platform).
With no argument, reads one link per line from stdin.`,
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "input"},
		},
		Flags: []cli.Flag{
			platformFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, json, yaml)",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "Re-fetch the matched track to confirm it exists",
			},
			&cli.BoolFlag{
				Name:    "open",
				Aliases: []string{"o"},
				Usage:   "Open the matched track in a browser",
			},
		},
		Action: r.Match,
	}
}

// batchCommand resolves a file of links with the worker pool.
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Resolve a list of links, one per line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"i"},
				Usage:    "Input file (use - for stdin)",
				Required: true,
			},
			platformFlag(),
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent resolutions (defaults to batch.workers)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Resolutions started per second (defaults to batch.rate_limit)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (csv, json, text)",
				Value:   "csv",
			},
		},
		Action: r.Batch,
	}
}

// scoreCommand explains the similarity of two tracks without any API call.
func scoreCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Explain the similarity score between two tracks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Source title", Required: true},
			&cli.StringFlag{Name: "artist", Usage: "Source artist", Required: true},
			&cli.StringFlag{Name: "candidate-title", Usage: "Candidate title", Required: true},
			&cli.StringFlag{Name: "candidate-artist", Usage: "Candidate artist", Required: true},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (table, json)",
				Value:   "table",
			},
		},
		Action: r.Score,
	}
}

// historyCommand lists stored resolutions.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded matches",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of records",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "failed",
				Usage: "Only show failed resolutions",
			},
			platformFlag(),
		},
		Action: r.History,
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the match API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (defaults to server.port)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			platformFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file used while the UI owns the terminal",
				Value: "./tmp/songmatch-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// setupCommand handles first-run setup
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a commented config file",
				Action: r.SetupConfig,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
			},
			{
				Name:   "database",
				Usage:  "Create the history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand checks platform credentials
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Credential commands",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Verify credentials for every configured platform",
				Action: r.AuthCheck,
			},
			{
				Name:   "apple-token",
				Usage:  "Sign and print an Apple Music developer token",
				Action: r.AppleToken,
			},
		},
	}
}
