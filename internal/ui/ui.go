package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	PlaylistListView
	ConfirmView
	SyncView
	ResultView
)

const barWidth = 30

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	src    services.Service
	dst    services.Service
	engine *tasks.Engine

	width  int
	height int

	playlists    []models.Playlist
	selected     map[string]bool
	playlistList list.Model
	resultList   list.Model

	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	progress     tasks.ProgressUpdate
	spinner      spinner.Model

	result *tasks.SyncResult
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a monitor synchronizing from src to dst with engine.
func NewModel(ctx context.Context, engine *tasks.Engine, src, dst services.Service) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:      ctx,
		view:     LoadingView,
		src:      src,
		dst:      dst,
		engine:   engine,
		selected: map[string]bool{},
		spinner:  s,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Err returns the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

// Result returns the result of the last run.
func (m *Model) Result() *tasks.SyncResult { return m.result }

// Init checks the account regions and fetches the source library.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchLibrary())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		switch m.view {
		case PlaylistListView, ConfirmView:
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		case ResultView:
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case LoadingView, SyncView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLibraryFetched:
		data := msg.data.(libraryData)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		m.playlists = data.playlists
		m.playlistList = list.New(m.playlistItems(), list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = fmt.Sprintf("%s playlists → %s", m.src.Name(), m.dst.Name())
		if m.width > 0 {
			m.playlistList.SetSize(m.width-4, m.height-8)
		}
		m.view = PlaylistListView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgSyncComplete:
		data := msg.data.(syncData)
		m.result = data.result
		m.err = data.err
		m.progressChan = nil
		m.doneChan = nil
		m.view = ResultView

		var items []list.Item
		if m.result != nil {
			for _, r := range m.result.Reports {
				items = append(items, reportItem{report: r})
			}
			if m.result.Likes != nil {
				items = append(items, reportItem{report: *m.result.Likes})
			}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.resultList.Title = "Results"
		if m.width > 0 {
			m.resultList.SetSize(m.width-4, m.height-8)
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Loading %s library...", m.spinner.View(), m.src.Name())
	case PlaylistListView:
		return m.renderPlaylistList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) playlistItems() []list.Item {
	items := make([]list.Item, len(m.playlists))
	for i, p := range m.playlists {
		items[i] = playlistItem{playlist: p, selected: m.selected[p.Name]}
	}
	return items
}

// Selection returns the chosen playlists, or all of them when none is chosen.
func (m *Model) Selection() []models.Playlist {
	var chosen []models.Playlist
	for _, p := range m.playlists {
		if m.selected[p.Name] {
			chosen = append(chosen, p)
		}
	}
	if len(chosen) == 0 {
		return m.playlists
	}
	return chosen
}

func (m *Model) allSelected() bool {
	for _, p := range m.playlists {
		if !m.selected[p.Name] {
			return false
		}
	}
	return len(m.playlists) > 0
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected[item.playlist.Name] = !m.selected[item.playlist.Name]
			m.playlistList.SetItems(m.playlistItems())
		}
		return m, nil
	case key.Matches(msg, m.keys.all):
		none := !m.allSelected()
		clear(m.selected)
		if none {
			for _, p := range m.playlists {
				m.selected[p.Name] = true
			}
		}
		m.playlistList.SetItems(m.playlistItems())
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = SyncView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = LoadingView
		m.result = nil
		m.err = nil
		clear(m.selected)
		return m, tea.Batch(m.spinner.Tick, m.fetchLibrary())
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ResultView:
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchLibrary() tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.Guard(m.ctx, m.src, m.dst); err != nil {
			return libraryFetchedMsg(nil, err)
		}
		playlists, err := m.engine.FetchLibrary(m.ctx, m.src)
		return libraryFetchedMsg(playlists, err)
	}
}

func (m *Model) startSync() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.doneChan = done
	m.engine.WithProgress(progress)

	playlists := m.Selection()
	go func() {
		result, err := m.engine.SyncSnapshot(m.ctx, playlists, m.dst)
		done <- syncCompleteMsg(result, err)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.all, m.keys.enter, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	chosen := m.Selection()
	tracks := 0
	for _, p := range chosen {
		tracks += len(p.Tracks)
	}

	title := styles.title.Render(fmt.Sprintf("Synchronize %d playlists to %s?", len(chosen), m.dst.Name()))
	info := fmt.Sprintf("Tracks: %d", tracks)
	if m.engine.Options().DryRun {
		info += "\n" + styles.warn.Render("Dry run: nothing will be written")
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSync() string {
	title := styles.title.Render(fmt.Sprintf("Synchronizing %s → %s", m.src.Name(), m.dst.Name()))
	line := fmt.Sprintf("%s %s", m.spinner.View(), phaseLabel(m.progress.Phase))
	if m.progress.Total > 0 {
		line += " " + bar(m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s\n%s\n%s", title, line, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Synchronization failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	total := m.result.Stats()
	title := styles.Rate(total.Rate()).Render(fmt.Sprintf("✓ %d/%d tracks converted (%.1f%%) in %s",
		total.Success, total.Attempts, total.Rate()*100, m.result.Duration().Round(time.Millisecond)))
	if m.result.DryRun {
		title += " " + styles.warn.Render("(dry run)")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.resultList.View(), helpView)
}

func phaseLabel(p tasks.Phase) string {
	switch p {
	case tasks.FetchSource:
		return "Fetching source playlists"
	case tasks.FetchDest:
		return "Fetching destination playlists"
	case tasks.FetchLikes:
		return "Fetching liked songs"
	case tasks.SyncPlaylist:
		return "Synchronizing playlist"
	case tasks.SearchTracks:
		return "Searching tracks"
	case tasks.AddTracks:
		return "Adding tracks"
	case tasks.SyncLikes:
		return "Synchronizing liked songs"
	case tasks.Report:
		return "Playlist done"
	case tasks.Done:
		return "Finishing"
	default:
		return "Processing"
	}
}

// bar draws a fixed-width progress bar for step out of total.
func bar(step, total int) string {
	filled := min(barWidth*step/total, barWidth)
	return styles.ok.Render(strings.Repeat("█", filled)) +
		styles.help.Render(strings.Repeat("░", barWidth-filled)) +
		fmt.Sprintf(" %d/%d", step, total)
}
