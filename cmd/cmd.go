// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootFlags are shared by every command.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

// setupCommand writes the configuration file and prepares the token cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the token cache",
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify in the browser, replacing any cached token",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show whether a token is cached and who it belongs to",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the cached token",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand lists the playlists available for analysis.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List your Spotify playlists (first 50)",
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
		Action: r.Playlists,
	}
}

// analyzeCommand prints the report for one playlist.
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze one playlist: summary, track table, popularity, artists and genres",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID to analyze",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Also write the track table to this CSV file",
			},
		},
		Action: r.Analyze,
	}
}

// tuiCommand returns the top-level TUI command for interactive analysis.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Pick a playlist and browse its report interactively",
		Action:  r.TUI,
	}
}
