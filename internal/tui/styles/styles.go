package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Accent     lipgloss.Color
	SlateDark  lipgloss.Color
	SlateLight lipgloss.Color
	DimGray    lipgloss.Color
	LightGray  lipgloss.Color
	White      lipgloss.Color
	Green      lipgloss.Color
	Red        lipgloss.Color
	Blue       lipgloss.Color
)

// Palette is a named set of colors
type Palette struct {
	Accent, SlateDark, SlateLight, DimGray, LightGray, White, Green, Red, Blue lipgloss.Color
}

// Themes lists the palettes selectable with the ui.theme setting
var Themes = map[string]Palette{
	"default": {
		Accent: "#FF4E45", SlateDark: "#1F2937", SlateLight: "#374151",
		DimGray: "#6B7280", LightGray: "#9CA3AF", White: "#F9FAFB",
		Green: "#10B981", Red: "#EF4444", Blue: "#3B82F6",
	},
	"mono": {
		Accent: "#E5E7EB", SlateDark: "#111111", SlateLight: "#3F3F46",
		DimGray: "#71717A", LightGray: "#A1A1AA", White: "#FAFAFA",
		Green: "#D4D4D8", Red: "#F4F4F5", Blue: "#D4D4D8",
	},
}

var (
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	DimStyle      lipgloss.Style
	AccentStyle   lipgloss.Style
	ErrorStyle    lipgloss.Style
	SuccessStyle  lipgloss.Style
	NoticeStyle   lipgloss.Style

	TabStyle       lipgloss.Style
	ActiveTabStyle lipgloss.Style

	SelectedItemStyle   lipgloss.Style
	NormalItemStyle     lipgloss.Style
	MatchHighlightStyle lipgloss.Style

	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style

	HelpKeyStyle  lipgloss.Style
	HelpDescStyle lipgloss.Style

	SpinnerStyle      lipgloss.Style
	FilterPromptStyle lipgloss.Style
	SectionStyle      lipgloss.Style

	// BadgeStyle marks membership and playback state
	BadgeStyle lipgloss.Style
)

func init() {
	apply(Themes["default"])
}

// ApplyTheme switches every style to the named palette. Unknown names keep
// the current palette and report false.
func ApplyTheme(name string) bool {
	p, ok := Themes[name]
	if !ok {
		return false
	}
	apply(p)
	return true
}

func apply(p Palette) {
	Accent, SlateDark, SlateLight = p.Accent, p.SlateDark, p.SlateLight
	DimGray, LightGray, White = p.DimGray, p.LightGray, p.White
	Green, Red, Blue = p.Green, p.Red, p.Blue

	// Text styles
	TitleStyle = lipgloss.NewStyle().
		Foreground(White).
		Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(LightGray)
	DimStyle = lipgloss.NewStyle().Foreground(DimGray)
	AccentStyle = lipgloss.NewStyle().Foreground(Accent)
	ErrorStyle = lipgloss.NewStyle().Foreground(Red)
	SuccessStyle = lipgloss.NewStyle().Foreground(Green)
	NoticeStyle = lipgloss.NewStyle().Foreground(Blue)

	// Header tabs
	TabStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Padding(0, 1)
	ActiveTabStyle = lipgloss.NewStyle().
		Foreground(SlateDark).
		Background(Accent).
		Bold(true).
		Padding(0, 1)

	// List items
	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(SlateLight).
		Padding(0, 1)
	NormalItemStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Padding(0, 1)
	MatchHighlightStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	// Modals
	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 2).
		Background(SlateDark)
	ModalTitleStyle = lipgloss.NewStyle().
		Foreground(White).
		Bold(true).
		MarginBottom(1)

	// Help
	HelpKeyStyle = lipgloss.NewStyle().Foreground(Accent)
	HelpDescStyle = lipgloss.NewStyle().Foreground(DimGray)

	SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)
	FilterPromptStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
	SectionStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true).
		MarginTop(1)

	BadgeStyle = lipgloss.NewStyle().
		Foreground(SlateDark).
		Background(Accent).
		Padding(0, 1)
}

// Truncate shortens s to width display cells, ending with an ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width == 1 {
		return "…"
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Highlight renders the characters of s starting at the given byte offsets in
// the match style
func Highlight(s string, indexes []int) string {
	if len(indexes) == 0 {
		return s
	}
	marked := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		marked[i] = true
	}

	var b strings.Builder
	for i, r := range s {
		if marked[i] {
			b.WriteString(MatchHighlightStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
