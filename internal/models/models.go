// package models defines the data model for the playlist analyzer
package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Separator joins artist names and genre tags in display strings.
const Separator = ", "

// Credentials are the three configuration values needed before any network call.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// PlaylistSummary is one playlist owned or followed by the authenticated user.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TracksTotal int    `json:"tracks_total"`
}

// Label is the selection label shown to the user.
func (p PlaylistSummary) Label() string {
	return fmt.Sprintf("%s (%d tracks)", p.Name, p.TracksTotal)
}

// Track is a playlist entry before genre enrichment.
//
// Name carries every named artist while ArtistIDs only holds artists that have an id,
// so the two may differ in arity.
type Track struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name"`
	Artist     string   `json:"artist"`
	ArtistIDs  []string `json:"artist_ids"`
	Album      string   `json:"album,omitempty"`
	DurationMS *int     `json:"duration_ms"`
	Popularity *int     `json:"popularity"`
}

// EnrichedTrack is a [Track] plus derived minutes and genre; artist ids are dropped.
type EnrichedTrack struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album,omitempty"`
	DurationMS  *int     `json:"duration_ms"`
	Popularity  *int     `json:"popularity"`
	DurationMin *float64 `json:"duration_min"`
	Genre       string   `json:"genre,omitempty"` // empty when no artist reported a genre
}

// HasGenre reports whether any genre tag was joined onto the track.
func (t EnrichedTrack) HasGenre() bool {
	return t.Genre != ""
}

// DurationMinutes converts milliseconds to minutes rounded to two decimals (half to even).
//
// Returns nil when ms is nil.
func DurationMinutes(ms *int) *float64 {
	if ms == nil {
		return nil
	}
	m := math.RoundToEven(float64(*ms)/60000*100) / 100
	return &m
}

// ArtistGenreIndex maps an artist id to the genre tags the service reports for it.
type ArtistGenreIndex map[string][]string

// Merge copies every entry of other into idx.
func (idx ArtistGenreIndex) Merge(other ArtistGenreIndex) {
	for id, genres := range other {
		idx[id] = genres
	}
}

// JoinGenres returns the sorted, de-duplicated, comma-joined union of the genres of artistIDs.
//
// Returns "" when there are no ids or none of them has a genre.
func (idx ArtistGenreIndex) JoinGenres(artistIDs []string) string {
	if len(artistIDs) == 0 {
		return ""
	}

	seen := make(map[string]struct{})
	for _, id := range artistIDs {
		for _, g := range idx[id] {
			seen[g] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return ""
	}

	genres := make([]string, 0, len(seen))
	for g := range seen {
		genres = append(genres, g)
	}
	sort.Strings(genres)
	return strings.Join(genres, Separator)
}

// Count is a single row of a frequency table.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary holds the aggregate metrics of one analysed playlist.
//
// TotalMinutes and AvgPopularity are nil when no track carried the underlying value.
type Summary struct {
	TotalTracks   int      `json:"total_tracks"`
	TotalMinutes  *float64 `json:"total_minutes"`
	AvgPopularity *float64 `json:"avg_popularity"`
	TopArtists    []Count  `json:"top_artists"`
	TopGenres     []Count  `json:"top_genres"`
}

// NotAvailable is displayed in place of a metric with no underlying data.
const NotAvailable = "N/A"

// HoursLabel formats the total length in hours with two decimals.
func (s Summary) HoursLabel() string {
	if s.TotalMinutes == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", *s.TotalMinutes/60)
}

// PopularityLabel formats the average popularity with one decimal.
func (s Summary) PopularityLabel() string {
	if s.AvgPopularity == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f", *s.AvgPopularity)
}
