package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/playloop/internal/domain"
	"github.com/mmcdole/playloop/internal/nav"
	"github.com/mmcdole/playloop/internal/search"
	"github.com/mmcdole/playloop/internal/tui/components"
	"github.com/mmcdole/playloop/internal/tui/styles"
)

// InputMode is what currently receives key presses
type InputMode int

const (
	ModeBrowse InputMode = iota
	ModeSearch
	ModeFilter
	ModeNewPlaylist
	ModePlaylists
	ModeConfirm
)

// row is one selectable video in the current list
type row struct {
	video   domain.Video
	index   int   // position in the unfiltered list
	matched []int // filter match offsets into the title
}

// Model is the main Bubble Tea model for the application
type Model struct {
	engine   Engine
	fragment string // restored on Init
	keys     KeyMap

	view  nav.View
	Ready bool

	// Dimensions
	Width  int
	Height int

	// Selection within the current list
	cursor int
	offset int

	Mode          InputMode
	searchInput   textinput.Model
	filterInput   textinput.Model
	filterResults []search.FilterResult
	nameModal     components.InputModal
	playlistModal components.PlaylistModal
	spinner       spinner.Model
	help          help.Model

	confirmPrompt string
	confirmEvent  nav.Event

	StatusMsg   string
	StatusIsErr bool
}

// NewModel creates the model; fragment is restored when the program starts
func NewModel(engine Engine, fragment string) Model {
	si := textinput.New()
	si.Placeholder = "Search videos..."
	si.Prompt = "search: "
	si.PromptStyle = styles.FilterPromptStyle
	si.CharLimit = 200

	fi := textinput.New()
	fi.Placeholder = "type to filter..."
	fi.Prompt = "/ "
	fi.PromptStyle = styles.FilterPromptStyle

	h := help.New()
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpDescStyle
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle

	return Model{
		engine:        engine,
		fragment:      fragment,
		keys:          Keys,
		searchInput:   si,
		filterInput:   fi,
		nameModal:     components.NewInputModal(),
		playlistModal: components.NewPlaylistModal(),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle)),
		help:          h,
	}
}

// Init restores the starting page
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		RestoreCmd(m.engine, m.fragment),
		m.spinner.Tick,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		m.Ready = true
		return m, nil

	case ViewMsg:
		return m.applyView(msg.View)

	case ErrMsg:
		m.StatusMsg = msg.Error()
		m.StatusIsErr = true
		return m, nil

	case tea.FocusMsg:
		return m, DispatchCmd(m.engine, nav.Event{Kind: nav.EventFocus})

	case tea.BlurMsg:
		return m, DispatchCmd(m.engine, nav.Event{Kind: nav.EventBlur})

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m Model) applyView(v nav.View) (tea.Model, tea.Cmd) {
	if v.Fragment != m.view.Fragment || v.Loading != m.view.Loading {
		m.cursor = 0
		m.offset = 0
		if m.Mode == ModeFilter {
			m.exitFilter()
		}
		m.filterResults = nil
	}
	m.view = v

	if m.playlistModal.IsVisible() {
		if v.State.Page != domain.PageWatch {
			m.playlistModal.Hide()
			m.Mode = ModeBrowse
		} else {
			m.playlistModal.SetMembership(v.Membership)
		}
	}
	if m.Mode == ModeFilter {
		m.refilter()
	}
	m.clampCursor()
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.Mode {
	case ModeSearch:
		return m.handleSearchKey(msg)
	case ModeFilter:
		return m.handleFilterKey(msg)
	case ModeNewPlaylist:
		return m.handleNewPlaylistKey(msg)
	case ModePlaylists:
		return m.handlePlaylistsKey(msg)
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	}

	m.StatusMsg = ""
	m.StatusIsErr = false
	page := m.view.State.Page

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.Mode = ModeSearch
		m.searchInput.SetValue(m.view.State.Query)
		m.searchInput.CursorEnd()
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Filter):
		m.Mode = ModeFilter
		m.filterInput.SetValue("")
		m.filterResults = nil
		cmd := m.filterInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		return m, m.openSelected()

	case key.Matches(msg, m.keys.Back):
		return m, BackCmd(m.engine)

	case key.Matches(msg, m.keys.Forward):
		return m, ForwardCmd(m.engine)

	case key.Matches(msg, m.keys.Home):
		return m, m.dispatch(nav.Event{Kind: nav.EventHome})

	case key.Matches(msg, m.keys.Trending):
		return m, m.dispatch(nav.Event{Kind: nav.EventTrending})

	case key.Matches(msg, m.keys.History):
		return m, m.dispatch(nav.Event{Kind: nav.EventHistory})

	case key.Matches(msg, m.keys.Library):
		return m, m.dispatch(nav.Event{Kind: nav.EventLibrary})

	case key.Matches(msg, m.keys.NextPlaylist) && page == domain.PageLibrary:
		return m, m.dispatch(nav.Event{Kind: nav.EventLibrary, Playlist: nextPlaylist(m.view.Playlists, m.view.State.Playlist)})

	case key.Matches(msg, m.keys.Next) && page == domain.PageWatch:
		return m, m.dispatch(nav.Event{Kind: nav.EventNext})

	case key.Matches(msg, m.keys.Prev) && page == domain.PageWatch:
		return m, m.dispatch(nav.Event{Kind: nav.EventPrev})

	case key.Matches(msg, m.keys.MoreComments) && page == domain.PageWatch:
		if !m.view.Comments.HasMore() {
			return m, nil
		}
		return m, m.dispatch(nav.Event{Kind: nav.EventLoadMoreComments})

	case key.Matches(msg, m.keys.CommentSort) && page == domain.PageWatch:
		return m, m.dispatch(nav.Event{Kind: nav.EventSetCommentSort, Sort: m.view.Comments.Sort.Toggle()})

	case key.Matches(msg, m.keys.SaveToPlaylist) && page == domain.PageWatch:
		m.Mode = ModePlaylists
		m.playlistModal.Show(m.view.Playlists, m.view.Membership)
		return m, nil

	case key.Matches(msg, m.keys.NewPlaylist):
		m.Mode = ModeNewPlaylist
		cmd := m.nameModal.Show("New playlist", "Playlist name...")
		return m, cmd

	case key.Matches(msg, m.keys.DeletePlaylist) && page == domain.PageLibrary && m.view.State.Playlist != "":
		name := m.view.State.Playlist
		m.confirm(fmt.Sprintf("Delete playlist %q?", name), nav.Event{Kind: nav.EventDeletePlaylist, Playlist: name})
		return m, nil

	case key.Matches(msg, m.keys.ClearHistory):
		m.confirm("Clear watch history?", nav.Event{Kind: nav.EventClearHistory})
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.filterResults = nil
		return m, nil
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Mode = ModeBrowse
		m.searchInput.Blur()
		return m, nil
	case "enter":
		m.Mode = ModeBrowse
		m.searchInput.Blur()
		query := strings.TrimSpace(m.searchInput.Value())
		if query == "" {
			return m, nil
		}
		return m, m.dispatch(nav.Event{Kind: nav.EventSearch, Query: query})
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.exitFilter()
		m.filterResults = nil
		m.cursor = 0
		m.offset = 0
		return m, nil
	case "enter":
		cmd := m.openSelected()
		m.exitFilter()
		return m, cmd
	case "up", "ctrl+p":
		m.moveCursor(-1)
		return m, nil
	case "down", "ctrl+n":
		m.moveCursor(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.refilter()
	m.cursor = 0
	m.offset = 0
	return m, cmd
}

func (m Model) handleNewPlaylistKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		cmd       tea.Cmd
		submitted bool
	)
	m.nameModal, cmd, submitted = m.nameModal.Update(msg)
	if !m.nameModal.IsVisible() {
		m.Mode = ModeBrowse
		return m, cmd
	}
	if !submitted {
		return m, cmd
	}

	name := m.nameModal.Value()
	m.nameModal.Hide()
	m.Mode = ModeBrowse
	if name == "" {
		return m, nil
	}
	return m, m.dispatch(nav.Event{Kind: nav.EventCreatePlaylist, Playlist: name})
}

func (m Model) handlePlaylistsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var name string
	m.playlistModal, name = m.playlistModal.Update(msg)
	if !m.playlistModal.IsVisible() {
		m.Mode = ModeBrowse
		return m, nil
	}
	if name == "" {
		return m, nil
	}
	return m, m.dispatch(nav.Event{Kind: nav.EventTogglePlaylist, Playlist: name})
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.Mode = ModeBrowse
		return m, m.dispatch(m.confirmEvent)
	case key.Matches(msg, m.keys.Deny):
		m.Mode = ModeBrowse
	}
	return m, nil
}

func (m *Model) confirm(prompt string, ev nav.Event) {
	m.Mode = ModeConfirm
	m.confirmPrompt = prompt
	m.confirmEvent = ev
}

func (m Model) dispatch(ev nav.Event) tea.Cmd {
	return DispatchCmd(m.engine, ev)
}

// list returns the videos the cursor moves over: related videos while
// watching, the page grid otherwise
func (m Model) list() []domain.Video {
	if m.view.State.Page == domain.PageWatch {
		return m.view.Related
	}
	return m.view.Videos
}

// rows returns the selectable rows; a non-nil filterResults replaces the list
func (m Model) rows() []row {
	list := m.list()
	if m.filterResults != nil {
		out := make([]row, len(m.filterResults))
		for i, r := range m.filterResults {
			out[i] = row{video: r.Video, index: r.Index, matched: r.MatchedIndexes}
		}
		return out
	}
	out := make([]row, len(list))
	for i, v := range list {
		out[i] = row{video: v, index: i}
	}
	return out
}

func (m *Model) refilter() {
	query := m.filterInput.Value()
	if strings.TrimSpace(query) == "" {
		m.filterResults = nil
		return
	}
	m.filterResults = search.NewFilterIndex(m.list()).Find(query)
	if m.filterResults == nil {
		m.filterResults = []search.FilterResult{}
	}
}

func (m *Model) exitFilter() {
	m.Mode = ModeBrowse
	m.filterInput.Blur()
}

func (m Model) openSelected() tea.Cmd {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return m.dispatch(nav.OpenVideo(m.list(), rows[m.cursor].index))
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// nextPlaylist cycles "" (all saved videos) -> each playlist -> ""
func nextPlaylist(names []string, current string) string {
	if current == "" {
		if len(names) == 0 {
			return ""
		}
		return names[0]
	}
	for i, name := range names {
		if name == current && i+1 < len(names) {
			return names[i+1]
		}
	}
	return ""
}
