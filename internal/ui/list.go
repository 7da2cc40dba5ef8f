package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/plstat/internal/models"
)

var _ list.Item = playlistItem{}

// playlistItem wraps [models.PlaylistSummary] to implement [list.Item].
type playlistItem struct {
	playlist models.PlaylistSummary
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Label() }
func (i playlistItem) Description() string { return "" }

func playlistItems(playlists []models.PlaylistSummary) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, pl := range playlists {
		items[i] = playlistItem{playlist: pl}
	}
	return items
}

func newPlaylistList(playlists []models.PlaylistSummary, width, height int) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(playlistItems(playlists), delegate, width, height)
	l.Title = "Select a playlist"
	l.SetShowHelp(false)
	return l
}
