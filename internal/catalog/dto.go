package catalog

import (
	"encoding/json"
)

// ListResponse is the envelope shared by the videos and search endpoints
type ListResponse struct {
	Items         []VideoResource `json:"items"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

// VideoResource is a raw catalog record. Search results carry only the id and
// snippet; detail lookups add statistics and contentDetails.
type VideoResource struct {
	ID             ResourceID      `json:"id"`
	Snippet        Snippet         `json:"snippet"`
	Statistics     *Statistics     `json:"statistics,omitempty"`
	ContentDetails *ContentDetails `json:"contentDetails,omitempty"`
}

// ResourceID is either a bare string (videos endpoint) or an object with a
// videoId field (search endpoint)
type ResourceID string

// UnmarshalJSON accepts both id shapes
func (r *ResourceID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ResourceID(s)
		return nil
	}

	var obj struct {
		VideoID string `json:"videoId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = ResourceID(obj.VideoID)
	return nil
}

// Snippet holds the descriptive part of a record
type Snippet struct {
	Title        string     `json:"title"`
	ChannelTitle string     `json:"channelTitle"`
	ChannelID    string     `json:"channelId"`
	Description  string     `json:"description"`
	PublishedAt  string     `json:"publishedAt"`
	Thumbnails   Thumbnails `json:"thumbnails"`
}

// Thumbnails lists the available resolutions; any may be absent
type Thumbnails struct {
	Default  *Thumbnail `json:"default,omitempty"`
	Medium   *Thumbnail `json:"medium,omitempty"`
	High     *Thumbnail `json:"high,omitempty"`
	Standard *Thumbnail `json:"standard,omitempty"`
	Maxres   *Thumbnail `json:"maxres,omitempty"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Statistics counts arrive as decimal strings
type Statistics struct {
	ViewCount    string `json:"viewCount,omitempty"`
	LikeCount    string `json:"likeCount,omitempty"`
	CommentCount string `json:"commentCount,omitempty"`
}

type ContentDetails struct {
	Duration string `json:"duration"`
}

// CommentThreadResponse is the commentThreads envelope
type CommentThreadResponse struct {
	Items         []CommentThread `json:"items"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

type CommentThread struct {
	ID      string `json:"id"`
	Snippet struct {
		TopLevelComment struct {
			ID      string         `json:"id"`
			Snippet CommentSnippet `json:"snippet"`
		} `json:"topLevelComment"`
		TotalReplyCount int64 `json:"totalReplyCount"`
	} `json:"snippet"`
}

type CommentSnippet struct {
	AuthorDisplayName     string `json:"authorDisplayName"`
	AuthorProfileImageURL string `json:"authorProfileImageUrl"`
	TextDisplay           string `json:"textDisplay"`
	LikeCount             int64  `json:"likeCount"`
	PublishedAt           string `json:"publishedAt"`
}

// errorResponse is the upstream error envelope
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
