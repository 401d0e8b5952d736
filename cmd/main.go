package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songmatch/internal/shared"
)

// Exit codes. A failed resolution is not a program error, so it gets its own code.
const (
	exitError   = 1
	exitNoMatch = 2
)

func main() {
	shared.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{})
	err := newApp(runner).Run(ctx, os.Args)
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, errMatchFailed):
		os.Exit(exitNoMatch)
	case errors.Is(err, shared.ErrNotImplemented):
		runner.logger.Warn("not implemented")
	default:
		runner.logger.Error("application error", "error", err)
		os.Exit(exitError)
	}
}

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "songmatch",
		Usage:    "Find the same track on Spotify and Apple Music",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.Init,
		After:    runner.Close,
		Commands: runner.register(),
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("SONGMATCH_CONFIG"),
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}
