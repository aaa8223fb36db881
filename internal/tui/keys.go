package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Forward  key.Binding
	Home     key.Binding
	Trending key.Binding
	History  key.Binding
	Library  key.Binding
	Next     key.Binding
	Prev     key.Binding

	// Actions
	Search         key.Binding
	Filter         key.Binding
	MoreComments   key.Binding
	CommentSort    key.Binding
	SaveToPlaylist key.Binding
	NewPlaylist    key.Binding
	NextPlaylist   key.Binding
	DeletePlaylist key.Binding
	ClearHistory   key.Binding
	Help           key.Binding
	Escape         key.Binding
	Quit           key.Binding

	// Confirmations
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("backspace", "["),
			key.WithHelp("[", "back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "forward"),
		),
		Home: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "home"),
		),
		Trending: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "trending"),
		),
		History: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "history"),
		),
		Library: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "library"),
		),
		Next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		MoreComments: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "more comments"),
		),
		CommentSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort comments"),
		),
		SaveToPlaylist: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "save to playlist"),
		),
		NewPlaylist: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new playlist"),
		),
		NextPlaylist: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next playlist"),
		),
		DeletePlaylist: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete playlist"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear history"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Enter, k.Back, k.Next, k.SaveToPlaylist, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped for the help screen
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back, k.Forward, k.Next, k.Prev},
		{k.Home, k.Trending, k.History, k.Library, k.Search, k.Filter},
		{k.MoreComments, k.CommentSort, k.SaveToPlaylist, k.NewPlaylist, k.NextPlaylist, k.DeletePlaylist, k.ClearHistory},
		{k.Help, k.Escape, k.Quit},
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
