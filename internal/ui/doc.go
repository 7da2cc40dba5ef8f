// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through one analysis session:
//  1. [LoadingView] : Fetch the user's playlists
//  2. [PlaylistListView] : Pick a playlist by its "<name> (<n> tracks)" label
//  3. [AnalyzingView] : Spinner and live progress while tracks and genres are fetched
//  4. [ReportView] : Scrollable report with summary widgets, track table and charts
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Analyzer], so the spinner keeps moving during long lookups.
// A failed or empty analysis returns to the playlist list with the reason shown above it.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
