package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgProgressUpdate
	MsgAnalysisComplete
)

type playlistsFetched struct {
	outcome models.Outcome[[]models.PlaylistSummary]
	err     error
}

type analysisComplete struct {
	outcome models.Outcome[*tasks.Report]
	err     error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(outcome models.Outcome[[]models.PlaylistSummary], err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{outcome, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// analysisCompleteMsg is the constructor for [MsgAnalysisComplete]
func analysisCompleteMsg(outcome models.Outcome[*tasks.Report], err error) Msg {
	return Msg{kind: MsgAnalysisComplete, data: analysisComplete{outcome, err}}
}
