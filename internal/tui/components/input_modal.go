package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/playloop/internal/tui/styles"
)

const modalWidth = 40

// InputModal is a single-line text prompt
type InputModal struct {
	visible bool
	title   string
	input   textinput.Model
}

// NewInputModal creates a hidden input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.CharLimit = 100
	ti.Width = modalWidth - 4
	ti.Prompt = "> "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return InputModal{input: ti}
}

// Show displays the modal with a title and placeholder
func (m *InputModal) Show(title, placeholder string) tea.Cmd {
	m.visible = true
	m.title = title
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	return m.input.Focus()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the trimmed input value
func (m InputModal) Value() string {
	return strings.TrimSpace(m.input.Value())
}

// Update handles input events and reports whether the value was submitted.
// Esc hides the modal; enter leaves hiding to the caller.
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return m, nil, true
		case "esc":
			m.Hide()
			return m, nil, false
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the modal
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(m.title),
		m.input.View(),
	)
	return styles.ModalStyle.Width(modalWidth).Render(content)
}
