package tasks

import (
	"fmt"

	"github.com/desertthunder/plstat/internal/models"
)

// ProgressUpdate represents a progress event during an analysis.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	FetchTracks
	LookupArtists
	Aggregate
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case LookupArtists:
		return "lookup_artists"
	case Aggregate:
		return "aggregate"
	default:
		return ""
	}
}

func fetchingPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    0,
		Total:   1,
		Message: "Fetching playlists from Spotify...",
	}
}

func foundPlaylistsUpdate(found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d playlists", found),
	}
}

func fetchTracksUpdate(page, fetched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    fetched,
		Total:   total,
		Message: fmt.Sprintf("Fetched page %d (%d/%d tracks)", page, fetched, total),
	}
}

func lookupArtistsUpdate(batch, batches, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupArtists,
		Step:    batch,
		Total:   batches,
		Message: fmt.Sprintf("[%d/%d] Looking up genres for %d artists...", batch, batches, size),
	}
}

func lookupFailedUpdate(w BatchWarning, batches int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupArtists,
		Step:    w.Batch,
		Total:   batches,
		Message: fmt.Sprintf("[%d/%d] ✗ %v", w.Batch, batches, w.Err),
		Data:    w,
	}
}

func aggregateUpdate(summary models.Summary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Summarized %d tracks", summary.TotalTracks),
		Data:    summary,
	}
}
