package domain

import (
	"net/url"
	"strings"
)

// Page identifies which page of the client is showing
type Page int

const (
	PageHome Page = iota
	PageTrending
	PageSearch
	PageWatch
	PageHistory
	PageLibrary
)

// String returns the page name used in fragments and logs
func (p Page) String() string {
	switch p {
	case PageHome:
		return "home"
	case PageTrending:
		return "trending"
	case PageSearch:
		return "search"
	case PageWatch:
		return "watch"
	case PageHistory:
		return "history"
	case PageLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// NavState is the tagged navigation value:
// Home | Trending | Search{Query} | Watch{VideoID} | History | Library{Playlist?}.
// Only the field belonging to Page is meaningful.
type NavState struct {
	Page     Page
	Query    string // PageSearch
	VideoID  string // PageWatch
	Playlist string // PageLibrary, empty for the "all saved videos" view
}

func HomeState() NavState                   { return NavState{Page: PageHome} }
func TrendingState() NavState               { return NavState{Page: PageTrending} }
func SearchState(query string) NavState     { return NavState{Page: PageSearch, Query: query} }
func WatchState(videoID string) NavState    { return NavState{Page: PageWatch, VideoID: videoID} }
func HistoryState() NavState                { return NavState{Page: PageHistory} }
func LibraryState(playlist string) NavState { return NavState{Page: PageLibrary, Playlist: playlist} }

// Valid reports whether the state carries the payload its page requires
func (s NavState) Valid() bool {
	switch s.Page {
	case PageSearch:
		return strings.TrimSpace(s.Query) != ""
	case PageWatch:
		return s.VideoID != ""
	case PageHome, PageTrending, PageHistory, PageLibrary:
		return true
	default:
		return false
	}
}

// Fragment returns the URL fragment encoding of the state
func (s NavState) Fragment() string {
	return EncodeFragment(s)
}

// EncodeFragment serializes a state as #home, #trending, #search=<q>, #watch=<id>,
// #history, #library or #library=<name>
func EncodeFragment(s NavState) string {
	switch s.Page {
	case PageTrending:
		return "#trending"
	case PageSearch:
		return "#search=" + url.PathEscape(s.Query)
	case PageWatch:
		return "#watch=" + url.PathEscape(s.VideoID)
	case PageHistory:
		return "#history"
	case PageLibrary:
		if s.Playlist == "" {
			return "#library"
		}
		return "#library=" + url.PathEscape(s.Playlist)
	default:
		return "#home"
	}
}

// DecodeFragment parses a fragment (with or without the leading '#').
// Unknown or payload-less fragments decode to Home with ok=false.
func DecodeFragment(fragment string) (NavState, bool) {
	frag := strings.TrimPrefix(strings.TrimSpace(fragment), "#")

	key, value, hasValue := strings.Cut(frag, "=")
	if hasValue {
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return HomeState(), false
		}
		value = decoded
	}

	var s NavState
	switch key {
	case "", "home":
		if hasValue {
			return HomeState(), false
		}
		return HomeState(), true
	case "trending":
		s = TrendingState()
	case "history":
		s = HistoryState()
	case "search":
		s = SearchState(value)
	case "watch":
		s = WatchState(value)
	case "library":
		s = LibraryState(value)
	default:
		return HomeState(), false
	}

	if !s.Valid() || (hasValue && s.Page != PageSearch && s.Page != PageWatch && s.Page != PageLibrary) {
		return HomeState(), false
	}
	return s, true
}
