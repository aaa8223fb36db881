package domain

import (
	"fmt"
	"strings"
	"time"
)

// Video is an immutable snapshot of a catalog item at fetch time.
// Saved/liked relations are expressed through playlist membership, never as fields here.
type Video struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Channel      string        `json:"channel"`
	ChannelID    string        `json:"channelId"`
	Description  string        `json:"description"`
	ThumbnailURL string        `json:"thumbnail"`
	PublishedAt  time.Time     `json:"publishedAt"`
	ViewCount    int64         `json:"viewCount"`
	LikeCount    int64         `json:"likeCount"`
	CommentCount int64         `json:"commentCount"`
	Duration     time.Duration `json:"duration"`
}

// WatchURL returns the canonical watch page URL for the video
func (v Video) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// FormattedDuration returns the duration as h:mm:ss or m:ss
func (v Video) FormattedDuration() string {
	total := int(v.Duration.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormattedViews returns the view count in compact form (e.g., "1.2M views")
func (v Video) FormattedViews() string {
	return CompactCount(v.ViewCount) + " views"
}

// TitleWords returns the first n whitespace-separated words of the title
func (v Video) TitleWords(n int) string {
	words := strings.Fields(v.Title)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// CompactCount formats a count with K/M/B suffixes
func CompactCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// TimeAgo renders the age of t relative to now ("3 days ago", "just now")
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	days := int(diff.Hours() / 24)

	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s ago", unit)
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}

	switch {
	case days >= 365:
		return plural(days/365, "year")
	case days >= 30:
		return plural(days/30, "month")
	case days > 0:
		return plural(days, "day")
	case diff >= time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff >= time.Minute:
		return plural(int(diff.Minutes()), "minute")
	default:
		return "just now"
	}
}

// HistoryEntry is a watched video with the time it was (last) watched
type HistoryEntry struct {
	Video     Video     `json:"video"`
	WatchedAt time.Time `json:"watchedAt"`
}

// Playlist is a named, ordered list of video snapshots. A video appears at most once.
type Playlist struct {
	Name   string  `json:"name"`
	Videos []Video `json:"videos"`
}

// Contains reports whether the playlist holds a video with the given ID
func (p Playlist) Contains(videoID string) bool {
	for _, v := range p.Videos {
		if v.ID == videoID {
			return true
		}
	}
	return false
}

// Comment is a top-level comment on a video
type Comment struct {
	ID             string
	Author         string
	AuthorImageURL string
	Text           string
	LikeCount      int64
	ReplyCount     int64
	PublishedAt    time.Time
}

// CommentPage is one page of comments plus the continuation token ("" when exhausted)
type CommentPage struct {
	Comments      []Comment
	NextPageToken string
}

// CommentOrder selects comment ordering upstream
type CommentOrder string

const (
	CommentOrderRelevance CommentOrder = "relevance"
	CommentOrderTime      CommentOrder = "time"
)

// DefaultCommentOrder is applied whenever the active video changes
const DefaultCommentOrder = CommentOrderRelevance

// Toggle returns the other comment order
func (o CommentOrder) Toggle() CommentOrder {
	if o == CommentOrderTime {
		return CommentOrderRelevance
	}
	return CommentOrderTime
}
