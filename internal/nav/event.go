package nav

import "github.com/mmcdole/playloop/internal/domain"

// EventKind enumerates everything that can drive a transition
type EventKind int

const (
	EventHome EventKind = iota
	EventTrending
	EventSearch
	EventOpenVideo
	EventHistory
	EventLibrary
	EventPopState
	EventNext
	EventPrev
	EventPlayerEnded
	EventLoadMoreComments
	EventSetCommentSort
	EventCreatePlaylist
	EventTogglePlaylist
	EventDeletePlaylist
	EventClearHistory
	EventFocus
	EventBlur
)

var eventNames = [...]string{
	EventHome:             "home",
	EventTrending:         "trending",
	EventSearch:           "search",
	EventOpenVideo:        "open_video",
	EventHistory:          "history",
	EventLibrary:          "library",
	EventPopState:         "pop_state",
	EventNext:             "next",
	EventPrev:             "prev",
	EventPlayerEnded:      "player_ended",
	EventLoadMoreComments: "load_more_comments",
	EventSetCommentSort:   "set_comment_sort",
	EventCreatePlaylist:   "create_playlist",
	EventTogglePlaylist:   "toggle_playlist",
	EventDeletePlaylist:   "delete_playlist",
	EventClearHistory:     "clear_history",
	EventFocus:            "focus",
	EventBlur:             "blur",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is the input to Engine.Dispatch. Only the fields used by Kind are read:
//
//	EventSearch           Query
//	EventOpenVideo        List and Index (the grid the video was picked from), or Video alone
//	EventLibrary          Playlist ("" for all saved videos)
//	EventPopState         State
//	EventPlayerEnded      VideoID
//	EventSetCommentSort   Sort
//	EventCreatePlaylist   Playlist
//	EventTogglePlaylist   Playlist, Video (defaults to the video being watched)
//	EventDeletePlaylist   Playlist
type Event struct {
	Kind     EventKind
	Query    string
	Video    domain.Video
	List     []domain.Video
	Index    int
	Playlist string
	State    domain.NavState
	VideoID  string
	Sort     domain.CommentOrder
}

// OpenVideo builds an EventOpenVideo for the video at index in list
func OpenVideo(list []domain.Video, index int) Event {
	return Event{Kind: EventOpenVideo, List: list, Index: index}
}
