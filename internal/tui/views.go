package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/playloop/internal/domain"
	"github.com/mmcdole/playloop/internal/tui/styles"
)

var tabs = []struct {
	label string
	page  domain.Page
}{
	{"Home", domain.PageHome},
	{"Trending", domain.PageTrending},
	{"History", domain.PageHistory},
	{"Library", domain.PageLibrary},
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return m.spinner.View() + " Starting..."
	}

	header := m.renderHeader()
	status := m.renderStatus()
	footer := m.renderFooter()

	bodyHeight := m.Height - lipgloss.Height(header) - lipgloss.Height(status) - lipgloss.Height(footer)
	bodyHeight = max(bodyHeight, 3)

	var body string
	switch {
	case m.view.Loading:
		body = fmt.Sprintf("%s Loading %s...", m.spinner.View(), m.view.State.Page)
	case m.view.State.Page == domain.PageWatch:
		body = m.renderWatch(bodyHeight)
	default:
		body = m.renderList(m.rows(), bodyHeight)
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	screen := lipgloss.JoinVertical(lipgloss.Left, header, status, body, footer)

	if overlay := m.renderOverlay(); overlay != "" {
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, overlay)
	}
	return screen
}

func (m Model) renderHeader() string {
	var parts []string
	for _, t := range tabs {
		if m.view.State.Page == t.page {
			parts = append(parts, styles.ActiveTabStyle.Render(t.label))
		} else {
			parts = append(parts, styles.TabStyle.Render(t.label))
		}
	}

	left := strings.Join(parts, " ")
	right := m.view.Fragment
	if m.view.State.Page == domain.PageSearch {
		right = "search: " + m.view.State.Query
	}
	if m.view.State.Page == domain.PageLibrary {
		right = "#library"
		if name := m.view.State.Playlist; name != "" {
			right = "playlist: " + name
		}
	}
	right = styles.DimStyle.Render(right)

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderStatus() string {
	switch {
	case m.Mode == ModeSearch:
		return m.searchInput.View()
	case m.Mode == ModeFilter:
		return m.filterInput.View()
	case m.StatusIsErr && m.StatusMsg != "":
		return styles.ErrorStyle.Render(styles.Truncate(m.StatusMsg, m.Width))
	case m.view.Notice != "":
		return styles.NoticeStyle.Render(styles.Truncate(m.view.Notice, m.Width))
	default:
		return ""
	}
}

func (m Model) renderFooter() string {
	return m.help.View(m.keys)
}

func (m Model) renderOverlay() string {
	switch m.Mode {
	case ModeNewPlaylist:
		return m.nameModal.View()
	case ModePlaylists:
		return m.playlistModal.View()
	case ModeConfirm:
		return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.ModalTitleStyle.Render(m.confirmPrompt),
			styles.DimStyle.Render("y confirm · n cancel"),
		))
	}
	return ""
}

// renderList renders rows in a window of height lines that keeps the cursor visible
func (m Model) renderList(rows []row, height int) string {
	if len(rows) == 0 {
		return styles.DimStyle.Render("Nothing here.")
	}

	offset := m.offset
	if m.cursor < offset {
		offset = m.cursor
	}
	if m.cursor >= offset+height {
		offset = m.cursor - height + 1
	}
	end := min(offset+height, len(rows))

	now := time.Now()
	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		lines = append(lines, m.renderRow(rows[i], i == m.cursor, now))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r row, selected bool, now time.Time) string {
	v := r.video
	meta := []string{v.Channel, v.FormattedViews()}
	if d := v.FormattedDuration(); d != "" {
		meta = append(meta, d)
	}
	if age := domain.TimeAgo(v.PublishedAt, now); age != "" {
		meta = append(meta, age)
	}
	metaText := " · " + strings.Join(meta, " · ")

	titleWidth := max(m.Width-lipgloss.Width(metaText)-4, 10)
	title := styles.Truncate(v.Title, titleWidth)
	if !selected && len(r.matched) > 0 && title == v.Title {
		title = styles.Highlight(title, r.matched)
	}

	if selected {
		return styles.SelectedItemStyle.Render(title + metaText)
	}
	return styles.NormalItemStyle.Render(title + styles.DimStyle.Render(metaText))
}

func (m Model) renderWatch(height int) string {
	v := m.view.Video
	now := time.Now()

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(v.Title, m.Width)))
	b.WriteString("\n")

	meta := []string{v.Channel, v.FormattedViews()}
	if age := domain.TimeAgo(v.PublishedAt, now); age != "" {
		meta = append(meta, age)
	}
	b.WriteString(styles.SubtitleStyle.Render(strings.Join(meta, " · ")))
	b.WriteString("  ")
	b.WriteString(styles.BadgeStyle.Render(m.view.Playback.String()))
	if q := m.view.Queue; len(q.Primary) > 1 {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  queue %d/%d", q.Index+1, len(q.Primary))))
	}
	for _, name := range m.view.Membership {
		b.WriteString(" ")
		b.WriteString(styles.SuccessStyle.Render("♥ " + name))
	}
	b.WriteString("\n")

	relatedHeight := max(height/2-3, 3)
	b.WriteString(styles.SectionStyle.Render("Up next"))
	b.WriteString("\n")
	if len(m.view.Related) == 0 && m.filterResults == nil {
		b.WriteString(styles.DimStyle.Render("Finding related videos..."))
	} else {
		b.WriteString(m.renderList(m.rows(), relatedHeight))
	}
	b.WriteString("\n")

	b.WriteString(m.renderComments(max(height-relatedHeight-6, 2)))
	return b.String()
}

func (m Model) renderComments(height int) string {
	c := m.view.Comments

	var b strings.Builder
	b.WriteString(styles.SectionStyle.Render(fmt.Sprintf("Comments (%s)", c.Sort)))
	b.WriteString("\n")

	switch {
	case c.Unavailable:
		b.WriteString(styles.DimStyle.Render("Comments unavailable"))
		return b.String()
	case len(c.Comments) == 0 && c.Loading:
		b.WriteString(m.spinner.View() + " Loading comments...")
		return b.String()
	case len(c.Comments) == 0:
		b.WriteString(styles.DimStyle.Render("No comments"))
		return b.String()
	}

	shown := min(len(c.Comments), height)
	for _, comment := range c.Comments[:shown] {
		author := styles.AccentStyle.Render(comment.Author)
		text := strings.Join(strings.Fields(comment.Text), " ")
		b.WriteString(author + " " + styles.Truncate(text, max(m.Width-lipgloss.Width(comment.Author)-2, 10)))
		b.WriteString("\n")
	}
	if c.HasMore() {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("%d loaded · c for more", len(c.Comments))))
	}
	return b.String()
}
