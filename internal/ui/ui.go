package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AnalyzeView ViewState = iota
	TrackListView
	StatsView
)

// progressUpdateMsg carries one pipeline progress event into the Elm loop.
type progressUpdateMsg tasks.ProgressUpdate

// analysisCompleteMsg ends the analyze view, successfully or not.
type analysisCompleteMsg struct {
	report *models.PlaylistReport
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	pipeline     *tasks.Pipeline
	playlistID   string
	width        int
	height       int
	trackList    list.Model
	report       *models.PlaylistReport
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, pipeline *tasks.Pipeline, playlistID string) *Model {
	return &Model{
		ctx:        ctx,
		view:       AnalyzeView,
		pipeline:   pipeline,
		playlistID: playlistID,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the first analysis run.
func (m *Model) Init() tea.Cmd {
	return m.startAnalysis(false)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case AnalyzeView:
			return m.handleAnalyzeKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case StatsView:
			return m.handleStatsKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case analysisCompleteMsg:
		m.report = msg.report
		m.err = msg.err
		if m.progressChan != nil {
			m.progressChan = nil
		}
		if msg.err == nil {
			m.buildTrackList()
			m.view = TrackListView
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case AnalyzeView:
		return m.renderAnalyze()
	case TrackListView:
		return m.renderTrackList()
	case StatsView:
		return m.renderStats()
	default:
		return ""
	}
}

func (m *Model) handleAnalyzeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if m.err != nil {
			m.err = nil
			return m, m.startAnalysis(true)
		}
	}
	return m, nil
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		m.view = StatsView
		return m, nil
	case "r":
		m.view = AnalyzeView
		m.report = nil
		m.err = nil
		return m, m.startAnalysis(true)
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleStatsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "s":
		m.view = TrackListView
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == TrackListView {
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) buildTrackList() {
	items := make([]list.Item, len(m.report.Tracks))
	for i, record := range m.report.Tracks {
		items[i] = trackItem{record: record}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = fmt.Sprintf("Tracks in '%s'", m.report.Name)
	m.trackList.SetSize(m.width-4, m.height-8)
}

func (m *Model) startAnalysis(refresh bool) tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progress := m.progressChan

	go func() {
		report, err := m.pipeline.AnalyzePlaylist(m.ctx, progress, m.playlistID, tasks.AnalyzeOpts{Refresh: refresh})
		m.report = report
		m.err = err
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return analysisCompleteMsg{report: m.report, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return analysisCompleteMsg{report: m.report, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderAnalyze() string {
	title := styles.title.Render(fmt.Sprintf("Analyzing Playlist %s", m.playlistID))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchPlaylist:
		phase = "Fetching playlist..."
	case tasks.ValidateTracks:
		phase = fmt.Sprintf("Validating tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.FetchFeatures:
		phase = "Fetching audio features..."
	case tasks.FetchGenres:
		phase = fmt.Sprintf("Fetching genres (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Aggregate:
		phase = "Computing statistics..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.stats, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderStats() string {
	if m.report == nil {
		return styles.err.Render("No report available\n\nPress esc to go back")
	}

	a := m.report.Analytics
	title := styles.title.Render(fmt.Sprintf("Analytics for '%s'", m.report.Name))

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\nTracks: %d\n", a.TotalTracks))
	b.WriteString(fmt.Sprintf("Valid previews: %s\n", styles.ok.Render(fmt.Sprintf("%d", a.ValidPreviews))))
	b.WriteString(fmt.Sprintf("Invalid previews: %s\n", styles.warn.Render(fmt.Sprintf("%d", a.InvalidPreviews))))
	b.WriteString(fmt.Sprintf("Average popularity: %.1f\n", a.AveragePopularity))

	if genres := a.TopGenres(5); len(genres) > 0 {
		b.WriteString(fmt.Sprintf("Top genres: %s\n", strings.Join(genres, ", ")))
	}

	if len(a.AudioFeatureAverages) > 0 {
		names := make([]string, 0, len(a.AudioFeatureAverages))
		for name := range a.AudioFeatureAverages {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("\nAudio feature averages:\n")
		for _, name := range names {
			b.WriteString(fmt.Sprintf("  %s: %.3f\n", name, a.AudioFeatureAverages[name]))
		}
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, b.String(), helpView)
}
