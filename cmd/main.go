package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/plstat/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadDotEnv(".env"); err != nil {
		logger.Warn("ignoring .env", "error", err)
	}

	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the command tree. Running it without a subcommand starts the TUI.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "plstat",
		Usage:    "Summarize a Spotify playlist: length, popularity, top artists and genres",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   r.load,
		Action:   r.TUI,
		Commands: r.register(),
		Writer:   r.output,
	}
}
