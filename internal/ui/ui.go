package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plstat/internal/formatter"
	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	PlaylistListView
	AnalyzingView
	ReportView
	DoneView
)

// chrome is the number of rows reserved around the list and viewport.
const chrome = 6

// analysisRun carries the channels of one in-flight analysis.
type analysisRun struct {
	progress chan tasks.ProgressUpdate
	done     chan Msg
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	analyzer     *tasks.Analyzer
	user         string
	width        int
	height       int
	playlistList list.Model
	playlists    []models.PlaylistSummary
	selected     *models.PlaylistSummary
	run          *analysisRun
	progress     tasks.ProgressUpdate
	report       *tasks.Report
	viewport     viewport.Model
	spinner      spinner.Model
	notice       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. user is the display name shown in the header.
func NewModel(ctx context.Context, analyzer *tasks.Analyzer, user string) *Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = styles.user

	return &Model{
		ctx:      ctx,
		view:     LoadingView,
		analyzer: analyzer,
		user:     user,
		viewport: viewport.New(80, 20),
		spinner:  s,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the spinner and fetches playlists.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchPlaylists())
}

// Err is the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

// Notice is the informational message the session ended with, if any.
func (m *Model) Notice() string { return m.notice }

// State returns the current [ViewState].
func (m *Model) State() ViewState { return m.view }

// Report returns the report currently displayed.
func (m *Model) Report() *tasks.Report { return m.report }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlists != nil {
			m.playlistList.SetSize(msg.Width-4, max(1, msg.Height-chrome))
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chrome)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != LoadingView && m.view != AnalyzingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			m.view = DoneView
			return m, tea.Quit
		}
		if data.outcome.Halted() {
			m.notice = data.outcome.Reason.String()
			m.view = DoneView
			return m, tea.Quit
		}
		m.playlists = data.outcome.Value
		m.playlistList = newPlaylistList(m.playlists, max(1, m.width-4), max(1, m.height-chrome))
		m.view = PlaylistListView
		return m, nil

	case MsgProgressUpdate:
		if m.run == nil {
			return m, nil
		}
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForAnalysis(m.run)

	case MsgAnalysisComplete:
		data := msg.data.(analysisComplete)
		m.run = nil
		m.progress = tasks.ProgressUpdate{}

		switch {
		case data.err != nil:
			m.notice = fmt.Sprintf("Analysis failed: %v", data.err)
			m.view = PlaylistListView
		case data.outcome.Halted():
			m.notice = data.outcome.Reason.String()
			m.view = PlaylistListView
		default:
			m.notice = ""
			m.report = data.outcome.Value
			m.viewport.SetContent(formatter.Report(m.report, formatter.RenderOptions{}))
			m.viewport.GotoTop()
			m.view = ReportView
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case PlaylistListView:
		if m.playlistList.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
				return m, m.startAnalysis(pl.playlist)
			}
			return m, nil
		}

	case ReportView:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = PlaylistListView
			m.report = nil
			return m, nil
		}

	default:
		if msg.String() == "ctrl+c" || m.view == DoneView {
			return m, tea.Quit
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ReportView:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		return playlistsFetchedMsg(m.analyzer.ListPlaylists(m.ctx, nil))
	}
}

// startAnalysis runs the analysis in the background; its updates and final result arrive as messages.
func (m *Model) startAnalysis(playlist models.PlaylistSummary) tea.Cmd {
	run := &analysisRun{
		progress: make(chan tasks.ProgressUpdate, 50),
		done:     make(chan Msg, 1),
	}
	m.run = run
	m.selected = &playlist
	m.notice = ""
	m.view = AnalyzingView

	go func() {
		outcome, err := m.analyzer.Analyze(m.ctx, playlist, run.progress)
		run.done <- analysisCompleteMsg(outcome, err)
	}()

	return tea.Batch(m.spinner.Tick, waitForAnalysis(run))
}

func waitForAnalysis(run *analysisRun) tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-run.progress:
			return progressUpdateMsg(update)
		case msg := <-run.done:
			return msg
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s\n\n%s Fetching playlists...", m.header(), m.spinner.View())
	case PlaylistListView:
		return m.renderPlaylistList()
	case AnalyzingView:
		return m.renderAnalyzing()
	case ReportView:
		return m.renderReport()
	case DoneView:
		if m.err != nil {
			return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
		}
		return styles.notice.Render(m.notice) + "\n"
	default:
		return ""
	}
}

func (m *Model) header() string {
	return styles.title.Render("plstat") + "\n" + styles.user.Render("Logged in as "+m.user)
}

func (m *Model) renderPlaylistList() string {
	notice := ""
	if m.notice != "" {
		notice = styles.notice.Render(m.notice) + "\n"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", m.header(), notice, m.playlistList.View(), styles.help.Render(helpView))
}

func (m *Model) renderAnalyzing() string {
	name := ""
	if m.selected != nil {
		name = m.selected.Name
	}
	return fmt.Sprintf("%s\n\n%s Analysing %s\n%s", m.header(), m.spinner.View(), name, m.progress.Message)
}

func (m *Model) renderReport() string {
	title := ""
	if m.report != nil {
		title = styles.title.Render(m.report.Playlist.Label())
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.pageUp, m.keys.pageDown, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.viewport.View(), styles.help.Render(helpView))
}
