package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plstat/internal/formatter"
	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/shared"
	"github.com/desertthunder/plstat/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Playlists lists the first 50 playlists of the authorized user.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	session, err := r.session(ctx)
	if err != nil {
		return err
	}
	analyzer := r.analyzer(session)

	name, err := analyzer.DisplayName(ctx)
	if err != nil {
		return err
	}

	outcome, err := analyzer.ListPlaylists(ctx, nil)
	if err != nil {
		return err
	}
	if outcome.Halted() {
		return r.writePlain("%s\n", outcome.Reason)
	}

	if useJSON {
		data, err := formatter.ToPlaylistsJSON(outcome.Value, pretty)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return r.writeBytes(data)
	}

	r.writePlain("Logged in as %s\n\n", name)
	return r.writePlain("%s", formatter.Playlists(outcome.Value))
}

// Analyze runs the full analysis for the playlist given by --id and prints the report.
//
// With --csv the track table is also written to a file.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	csvPath := cmd.String("csv")

	if playlistID == "" {
		return fmt.Errorf("%w: --id is required", shared.ErrMissingArgument)
	}

	session, err := r.session(ctx)
	if err != nil {
		return err
	}
	analyzer := r.analyzer(session)

	name, err := analyzer.DisplayName(ctx)
	if err != nil {
		return err
	}

	playlist, err := r.findPlaylist(ctx, analyzer, playlistID)
	if err != nil {
		return err
	}

	var outcome models.Outcome[*tasks.Report]
	run := func(ctx context.Context) error {
		var err error
		outcome, err = analyzer.Analyze(ctx, playlist, nil)
		return err
	}

	if useJSON {
		err = run(ctx)
	} else {
		err = r.spin(ctx, fmt.Sprintf("Analysing %s...", playlist.Name), run)
	}
	if err != nil {
		return err
	}

	if outcome.Halted() {
		return r.writePlain("%s\n", outcome.Reason)
	}
	report := outcome.Value
	if report.Playlist.TracksTotal == 0 {
		report.Playlist.TracksTotal = report.Summary.TotalTracks
	}

	if csvPath != "" {
		path, err := formatter.WriteCSVExport(report, csvPath)
		if err != nil {
			return err
		}
		r.logger.Info("track table written", "path", path)
	}

	if useJSON {
		data, err := formatter.ExportToJSON(report, pretty)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return r.writeBytes(data)
	}

	r.writePlain("Logged in as %s\n", name)
	r.writePlainln("%s", report.Playlist.Label())
	r.writePlain("\n")
	return formatter.RenderReport(r.output, report, formatter.RenderOptions{})
}

// findPlaylist resolves id against the listed playlists for its name and count.
//
// Playlists outside the first 50 are still analyzed, labelled by their id.
func (r *Runner) findPlaylist(ctx context.Context, analyzer *tasks.Analyzer, id string) (models.PlaylistSummary, error) {
	outcome, err := analyzer.ListPlaylists(ctx, nil)
	if err != nil {
		return models.PlaylistSummary{}, err
	}

	for _, p := range outcome.Value {
		if p.ID == id {
			return p, nil
		}
	}

	r.logger.Debug("playlist not in listing, analysing by id", "playlist", id)
	return models.PlaylistSummary{ID: id, Name: id}, nil
}
