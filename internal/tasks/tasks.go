// package tasks implements the playlist analysis pipeline.
//
// The core abstraction is Analyzer, which lists playlists, fetches tracks, enriches them with genres and summarizes them.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/services"
	"github.com/desertthunder/plstat/internal/shared"
)

// PlaylistLimit caps how many playlists are listed. No further pages are requested.
const PlaylistLimit = services.MaxPlaylistsPerRequest

// DefaultTopN is the size of the artist and genre frequency tables.
const DefaultTopN = 10

// Report is the complete result of analysing one playlist.
type Report struct {
	ID       string                 `json:"id"`
	Playlist models.PlaylistSummary `json:"playlist"`
	Tracks   []models.EnrichedTrack `json:"tracks"`
	Summary  models.Summary         `json:"summary"`
	Warnings []BatchWarning         `json:"warnings,omitempty"`
}

// HasGenres reports whether any track carries genre information.
func (r *Report) HasGenres() bool {
	for _, t := range r.Tracks {
		if t.HasGenre() {
			return true
		}
	}
	return false
}

// Options tune an [Analyzer].
type Options struct {
	TopN             int // Entries in each frequency table, [DefaultTopN] when zero
	BatchConcurrency int // Artist batches looked up at once, 1 when zero
}

// Analyzer runs the pipeline against one [services.Session].
type Analyzer struct {
	session     services.Session
	logger      *log.Logger
	topN        int
	concurrency int
}

// NewAnalyzer creates an [Analyzer]. A nil logger discards output.
func NewAnalyzer(session services.Session, logger *log.Logger, opts Options) *Analyzer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 1
	}
	return &Analyzer{
		session:     session,
		logger:      logger,
		topN:        opts.TopN,
		concurrency: opts.BatchConcurrency,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// DisplayName returns the authorized user's display name, wrapping failures in [shared.ErrProfileFetch].
func (a *Analyzer) DisplayName(ctx context.Context) (string, error) {
	user, err := a.session.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrProfileFetch, err)
	}
	if user.DisplayName == "" {
		return "Unknown user", nil
	}
	return user.DisplayName, nil
}

// ListPlaylists returns at most [PlaylistLimit] of the user's playlists.
//
// An empty account halts with [models.HaltNoPlaylists] rather than failing.
func (a *Analyzer) ListPlaylists(ctx context.Context, progress chan<- ProgressUpdate) (models.Outcome[[]models.PlaylistSummary], error) {
	sendProgress(progress, fetchingPlaylistsUpdate())

	page, err := a.session.UserPlaylists(ctx, PlaylistLimit)
	if err != nil {
		return models.Outcome[[]models.PlaylistSummary]{}, fmt.Errorf("%w: failed to list playlists: %w", shared.ErrAPIRequest, err)
	}

	playlists := make([]models.PlaylistSummary, 0, len(page.Items))
	for _, item := range page.Items {
		if item == nil {
			continue
		}
		playlists = append(playlists, models.PlaylistSummary{
			ID:          item.ID,
			Name:        item.Name,
			TracksTotal: item.TracksTotal(),
		})
	}

	sendProgress(progress, foundPlaylistsUpdate(len(playlists)))
	a.logger.Debug("listed playlists", "count", len(playlists), "more", page.Next != nil)

	if len(playlists) == 0 {
		return models.Halt[[]models.PlaylistSummary](models.HaltNoPlaylists), nil
	}
	return models.Proceed(playlists), nil
}

// FetchTracks pages through a playlist in order, skipping entries without a track.
//
// Any page failure discards what was collected and returns an error wrapping [shared.ErrTrackFetch].
func (a *Analyzer) FetchTracks(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) ([]models.Track, error) {
	page, err := a.session.PlaylistTracks(ctx, playlistID, services.MaxTracksPerRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrTrackFetch, err)
	}

	var tracks []models.Track
	for n := 1; page != nil; n++ {
		for _, item := range page.Items {
			if item == nil || item.Track == nil {
				continue
			}
			tracks = append(tracks, convertTrack(item.Track))
		}
		sendProgress(progress, fetchTracksUpdate(n, len(tracks), page.Total))

		if !page.HasNext() {
			break
		}
		if page, err = a.session.NextTracks(ctx, page); err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", shared.ErrTrackFetch, n+1, err)
		}
	}

	a.logger.Debug("fetched tracks", "playlist", playlistID, "count", len(tracks))
	return tracks, nil
}

// convertTrack keeps every named artist in the display string but only artists with an id in ArtistIDs.
func convertTrack(st *services.SpotifyTrack) models.Track {
	names := make([]string, 0, len(st.Artists))
	ids := make([]string, 0, len(st.Artists))
	for _, artist := range st.Artists {
		if artist == nil {
			continue
		}
		if artist.Name != "" {
			names = append(names, artist.Name)
		}
		if artist.ID != "" {
			ids = append(ids, artist.ID)
		}
	}

	track := models.Track{
		ID:         st.ID,
		Name:       st.Name,
		Artist:     strings.Join(names, models.Separator),
		ArtistIDs:  ids,
		DurationMS: st.DurationMS,
		Popularity: st.Popularity,
	}
	if st.Album != nil {
		track.Album = st.Album.Name
	}
	return track
}

// Analyze runs Track Fetcher, Genre Enricher and Aggregator for one selected playlist.
//
// A playlist without tracks halts with [models.HaltNoTracks] before anything is aggregated.
func (a *Analyzer) Analyze(ctx context.Context, playlist models.PlaylistSummary, progress chan<- ProgressUpdate) (models.Outcome[*Report], error) {
	id := shared.GenerateID()
	logger := shared.WithLogger(a.logger, "analysis", id)
	logger.Info("analysing playlist", "playlist", playlist.ID, "name", playlist.Name)

	tracks, err := a.FetchTracks(ctx, playlist.ID, progress)
	if err != nil {
		return models.Outcome[*Report]{}, err
	}
	if len(tracks) == 0 {
		logger.Info("playlist has no tracks")
		return models.Halt[*Report](models.HaltNoTracks), nil
	}

	index, warnings, err := a.BuildGenreIndex(ctx, tracks, progress)
	if err != nil {
		return models.Outcome[*Report]{}, err
	}
	for _, w := range warnings {
		logger.Warn("artist genre lookup skipped", "batch", w.Batch, "artists", len(w.ArtistIDs), "error", w.Err)
	}

	enriched := Enrich(tracks, index)
	summary := Summarize(enriched, a.topN)
	sendProgress(progress, aggregateUpdate(summary))

	logger.Info("analysis complete", "tracks", summary.TotalTracks, "warnings", len(warnings))
	return models.Proceed(&Report{
		ID:       id,
		Playlist: playlist,
		Tracks:   enriched,
		Summary:  summary,
		Warnings: warnings,
	}), nil
}
