// Package models defines the transient records that flow through a playlist analysis.
//
// Every value is created by one pipeline stage and read by the next; nothing here is mutated after construction
// and nothing is persisted except the OAuth token handled by the repositories package.
//
//   - [Credentials] : client id, secret and redirect URI read from the environment
//   - [PlaylistSummary] : one of the user's playlists, as offered for selection
//   - [Track] : a playlist entry with its artist ids, before enrichment
//   - [EnrichedTrack] : a track with minutes and joined genre tags
//   - [ArtistGenreIndex] : artist id → genre tags, built once per analysis
//   - [Summary] : aggregate counts and top-N tables rendered by the presenter
//   - [Outcome] : a value or an informational halt (no playlists, no tracks)
package models
