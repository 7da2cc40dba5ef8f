package tasks

import (
	"sort"
	"strings"

	"github.com/desertthunder/plstat/internal/models"
)

// Summarize computes the playlist metrics and top-N tables.
//
// Null durations and popularities are left out of the sums and counts; with none present the metric stays nil.
func Summarize(tracks []models.EnrichedTrack, topN int) models.Summary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	summary := models.Summary{TotalTracks: len(tracks)}

	var minutes, popularity float64
	var withMinutes, withPopularity int
	artists := make([]string, 0, len(tracks))
	genres := make([]string, 0, len(tracks))

	for _, t := range tracks {
		if t.DurationMin != nil {
			minutes += *t.DurationMin
			withMinutes++
		}
		if t.Popularity != nil {
			popularity += float64(*t.Popularity)
			withPopularity++
		}
		artists = append(artists, t.Artist)
		if t.HasGenre() {
			genres = append(genres, t.Genre)
		}
	}

	if withMinutes > 0 {
		summary.TotalMinutes = &minutes
	}
	if withPopularity > 0 {
		avg := popularity / float64(withPopularity)
		summary.AvgPopularity = &avg
	}

	summary.TopArtists = TopCounts(artists, topN)
	summary.TopGenres = TopCounts(genres, topN)
	return summary
}

// TopCounts splits each ", "-joined value, counts the parts and returns the n most frequent.
//
// Ties keep the order in which labels were first seen. Empty parts are not counted.
func TopCounts(values []string, n int) []models.Count {
	counts := make(map[string]int)
	var order []string

	for _, v := range values {
		if v == "" {
			continue
		}
		for _, part := range strings.Split(v, models.Separator) {
			if part == "" {
				continue
			}
			if _, ok := counts[part]; !ok {
				order = append(order, part)
			}
			counts[part]++
		}
	}

	result := make([]models.Count, len(order))
	for i, label := range order {
		result[i] = models.Count{Label: label, Count: counts[label]}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	if len(result) > n {
		result = result[:n]
	}
	return result
}
