package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/playloop/internal/tui/styles"
)

// PlaylistModal picks a playlist to toggle the current video in
type PlaylistModal struct {
	visible    bool
	names      []string
	membership map[string]bool
	cursor     int
}

// NewPlaylistModal creates a hidden playlist modal
func NewPlaylistModal() PlaylistModal {
	return PlaylistModal{membership: make(map[string]bool)}
}

// Show lists names, marking those in membership
func (m *PlaylistModal) Show(names, membership []string) {
	m.visible = true
	m.names = names
	m.cursor = 0
	m.SetMembership(membership)
}

// SetMembership refreshes the check marks while the modal is open
func (m *PlaylistModal) SetMembership(membership []string) {
	m.membership = make(map[string]bool, len(membership))
	for _, name := range membership {
		m.membership[name] = true
	}
}

// Hide dismisses the modal
func (m *PlaylistModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m PlaylistModal) IsVisible() bool {
	return m.visible
}

// Update handles navigation and returns the playlist chosen for toggling,
// or "" when nothing was chosen
func (m PlaylistModal) Update(msg tea.Msg) (PlaylistModal, string) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !m.visible || !ok {
		return m, ""
	}

	switch keyMsg.String() {
	case "j", "down":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case " ", "enter":
		if m.cursor < len(m.names) {
			return m, m.names[m.cursor]
		}
	case "esc", "a", "q":
		m.Hide()
	}
	return m, ""
}

// View renders the modal
func (m PlaylistModal) View() string {
	if !m.visible {
		return ""
	}

	var rows []string
	if len(m.names) == 0 {
		rows = append(rows, styles.DimStyle.Render("No playlists yet. Press N to create one."))
	}
	for i, name := range m.names {
		check := "[ ]"
		if m.membership[name] {
			check = styles.SuccessStyle.Render("[x]")
		}
		row := check + " " + styles.Truncate(name, modalWidth-8)
		if i == m.cursor {
			row = styles.SelectedItemStyle.Render(row)
		} else {
			row = styles.NormalItemStyle.Render(row)
		}
		rows = append(rows, row)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Save to playlist"),
		strings.Join(rows, "\n"),
		styles.DimStyle.Render("space toggle · esc close"),
	)
	return styles.ModalStyle.Width(modalWidth).Render(content)
}
