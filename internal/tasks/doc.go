// Package tasks runs the playlist analysis pipeline with real-time progress reporting.
//
// # Pipeline
//
// [Analyzer] wraps a [services.Session] and exposes each stage:
//
//  1. [Analyzer.ListPlaylists] : first [PlaylistLimit] playlists of the user
//     - An empty account halts with [models.HaltNoPlaylists]
//
//  2. [Analyzer.FetchTracks] : every page of a playlist, in order
//     - Entries whose track is null are skipped
//     - Any page failure fails the whole fetch with [shared.ErrTrackFetch]
//
//  3. [Analyzer.BuildGenreIndex] and [Enrich] : genre join
//     - Distinct artist ids are looked up in batches of 50
//     - A rejected batch becomes a [BatchWarning] and the rest continue
//     - Genres are the sorted, de-duplicated union over a track's artists
//
//  4. [Summarize] : totals, averages and top-N frequency tables
//
// [Analyzer.Analyze] chains 2 to 4 for one playlist and halts with [models.HaltNoTracks]
// when nothing is left to aggregate.
//
// # Concurrency
//
// Artist batches run through an errgroup bounded by [Options.BatchConcurrency] (sequential by default).
// Each batch writes to its own slot and the index is merged in batch order afterwards.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
