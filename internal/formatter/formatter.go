// package formatter renders analysis reports for the terminal and exports them to CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/shared"
	"github.com/desertthunder/plstat/internal/tasks"
)

// TrackColumns are the columns of the track table, in display order.
var TrackColumns = []string{"name", "artist", "genre", "album", "duration_min", "popularity"}

// TrackRow flattens an enriched track into [TrackColumns] order.
//
// Missing durations and popularities become empty strings.
func TrackRow(t models.EnrichedTrack) []string {
	var minutes, popularity string
	if t.DurationMin != nil {
		minutes = strconv.FormatFloat(*t.DurationMin, 'f', 2, 64)
	}
	if t.Popularity != nil {
		popularity = strconv.Itoa(*t.Popularity)
	}
	return []string{t.Name, t.Artist, t.Genre, t.Album, minutes, popularity}
}

// ExportToCSV converts a report's tracks to CSV with a header row of [TrackColumns]
func ExportToCSV(report *tasks.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(TrackColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range report.Tracks {
		if err := writer.Write(TrackRow(track)); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteCSVExport writes the track table to a CSV file.
//
// Defaults to {playlist.ID}_tracks.csv as the filename.
func WriteCSVExport(report *tasks.Report, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.csv", report.Playlist.ID)
	}

	data, err := ExportToCSV(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// jsonReport is the exported shape of a report, warnings flattened to their messages.
type jsonReport struct {
	ID       string                 `json:"id"`
	Playlist models.PlaylistSummary `json:"playlist"`
	Summary  models.Summary         `json:"summary"`
	Tracks   []models.EnrichedTrack `json:"tracks"`
	Warnings []string               `json:"warnings"`
}

// ExportToJSON encodes a report with its summary, tracks and warning messages.
func ExportToJSON(report *tasks.Report, pretty bool) ([]byte, error) {
	out := jsonReport{
		ID:       report.ID,
		Playlist: report.Playlist,
		Summary:  report.Summary,
		Tracks:   report.Tracks,
		Warnings: make([]string, 0, len(report.Warnings)),
	}
	if out.Tracks == nil {
		out.Tracks = []models.EnrichedTrack{}
	}
	for _, w := range report.Warnings {
		out.Warnings = append(out.Warnings, w.Message())
	}
	return shared.MarshalJSON(out, pretty)
}

// ToPlaylistsJSON encodes the playlist selection with each entry's label.
func ToPlaylistsJSON(playlists []models.PlaylistSummary, pretty bool) ([]byte, error) {
	type entry struct {
		models.PlaylistSummary
		Label string `json:"label"`
	}
	entries := make([]entry, len(playlists))
	for i, p := range playlists {
		entries[i] = entry{PlaylistSummary: p, Label: p.Label()}
	}
	return shared.MarshalJSON(entries, pretty)
}
