package catalog

import (
	"html"
	"regexp"
	"strconv"
	"time"

	"github.com/mmcdole/playloop/internal/domain"
)

var durationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// Normalize maps one raw catalog record into a Video. It never fails.
func Normalize(r VideoResource) domain.Video {
	id := string(r.ID)

	v := domain.Video{
		ID:           id,
		Title:        html.UnescapeString(r.Snippet.Title),
		Channel:      r.Snippet.ChannelTitle,
		ChannelID:    r.Snippet.ChannelID,
		Description:  r.Snippet.Description,
		ThumbnailURL: pickThumbnail(id, r.Snippet.Thumbnails),
		PublishedAt:  parseTimestamp(r.Snippet.PublishedAt),
	}

	if r.Statistics != nil {
		v.ViewCount = parseCount(r.Statistics.ViewCount)
		v.LikeCount = parseCount(r.Statistics.LikeCount)
		v.CommentCount = parseCount(r.Statistics.CommentCount)
	}
	if r.ContentDetails != nil {
		v.Duration = ParseDuration(r.ContentDetails.Duration)
	}

	return v
}

// NormalizeAll maps a batch of records, keeping order
func NormalizeAll(items []VideoResource) []domain.Video {
	videos := make([]domain.Video, 0, len(items))
	for _, item := range items {
		videos = append(videos, Normalize(item))
	}
	return videos
}

// DefaultThumbnailURL is the thumbnail the catalog serves for every video id
func DefaultThumbnailURL(id string) string {
	return "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
}

func pickThumbnail(id string, t Thumbnails) string {
	for _, thumb := range []*Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.URL != "" {
			return thumb.URL
		}
	}
	return DefaultThumbnailURL(id)
}

// ParseDuration parses the PnDTnHnMnS subset of ISO-8601 durations.
// Anything it cannot parse yields zero.
func ParseDuration(code string) time.Duration {
	m := durationPattern.FindStringSubmatch(code)
	if m == nil {
		return 0
	}

	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0
		}
		d += time.Duration(n) * unit
	}
	return d
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// mapComment converts a comment thread into its top-level comment
func mapComment(t CommentThread) domain.Comment {
	c := t.Snippet.TopLevelComment.Snippet
	id := t.Snippet.TopLevelComment.ID
	if id == "" {
		id = t.ID
	}
	return domain.Comment{
		ID:             id,
		Author:         c.AuthorDisplayName,
		AuthorImageURL: c.AuthorProfileImageURL,
		Text:           c.TextDisplay,
		LikeCount:      c.LikeCount,
		ReplyCount:     t.Snippet.TotalReplyCount,
		PublishedAt:    parseTimestamp(c.PublishedAt),
	}
}
