package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/services"
	"github.com/desertthunder/plstat/internal/shared"
	"golang.org/x/sync/errgroup"
)

// BatchWarning records an artist batch the service rejected.
//
// Artists in the batch contribute no genres; the rest of the enrichment is unaffected.
type BatchWarning struct {
	Batch      int      `json:"batch"` // 1-based
	ArtistIDs  []string `json:"artist_ids"`
	StatusCode int      `json:"status_code,omitempty"`
	Err        error    `json:"-"`
}

// Message is the user-facing warning text.
func (w BatchWarning) Message() string {
	if w.StatusCode != 0 {
		return fmt.Sprintf("Spotify refused artist genre request for a batch of %d artists (HTTP %d). Skipping those artists.", len(w.ArtistIDs), w.StatusCode)
	}
	return fmt.Sprintf("Artist genre request failed for a batch of %d artists (%v). Skipping those artists.", len(w.ArtistIDs), w.Err)
}

// DistinctArtistIDs returns every artist id across tracks once, in first-seen order.
func DistinctArtistIDs(tracks []models.Track) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, t := range tracks {
		for _, id := range t.ArtistIDs {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Batches splits ids into consecutive chunks of at most size.
func Batches(ids []string, size int) [][]string {
	if size <= 0 {
		size = services.MaxArtistsPerRequest
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

// BuildGenreIndex looks up the genres of every distinct artist in tracks.
//
// Rejected batches become warnings. Only cancellation of ctx is returned as an error.
// Batches may run concurrently; results are merged in batch order.
func (a *Analyzer) BuildGenreIndex(ctx context.Context, tracks []models.Track, progress chan<- ProgressUpdate) (models.ArtistGenreIndex, []BatchWarning, error) {
	index := models.ArtistGenreIndex{}

	ids := DistinctArtistIDs(tracks)
	if len(ids) == 0 {
		return index, nil, nil
	}

	batches := Batches(ids, services.MaxArtistsPerRequest)
	partial := make([]models.ArtistGenreIndex, len(batches))
	failed := make([]*BatchWarning, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, batch := range batches {
		g.Go(func() error {
			sendProgress(progress, lookupArtistsUpdate(i+1, len(batches), len(batch)))

			artists, err := a.session.SeveralArtists(gctx, batch)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				w := &BatchWarning{
					Batch:     i + 1,
					ArtistIDs: batch,
					Err:       fmt.Errorf("%w: batch %d: %w", shared.ErrArtistLookup, i+1, err),
				}
				var apiErr *services.APIError
				if errors.As(err, &apiErr) {
					w.StatusCode = apiErr.StatusCode
				}
				failed[i] = w
				sendProgress(progress, lookupFailedUpdate(*w, len(batches)))
				return nil
			}

			part := make(models.ArtistGenreIndex, len(artists))
			for _, artist := range artists {
				if artist == nil || artist.ID == "" {
					continue
				}
				genres := artist.Genres
				if genres == nil {
					genres = []string{}
				}
				part[artist.ID] = genres
			}
			partial[i] = part
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []BatchWarning
	for i := range batches {
		if failed[i] != nil {
			warnings = append(warnings, *failed[i])
			continue
		}
		index.Merge(partial[i])
	}
	return index, warnings, nil
}

// Enrich derives minutes and the joined genre string for every track, in order.
//
// Pure: the same tracks and index always give the same result.
func Enrich(tracks []models.Track, index models.ArtistGenreIndex) []models.EnrichedTrack {
	enriched := make([]models.EnrichedTrack, len(tracks))
	for i, t := range tracks {
		enriched[i] = models.EnrichedTrack{
			ID:          t.ID,
			Name:        t.Name,
			Artist:      t.Artist,
			Album:       t.Album,
			DurationMS:  t.DurationMS,
			Popularity:  t.Popularity,
			DurationMin: models.DurationMinutes(t.DurationMS),
			Genre:       index.JoinGenres(t.ArtistIDs),
		}
	}
	return enriched
}
