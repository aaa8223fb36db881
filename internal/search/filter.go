package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/playloop/internal/domain"
)

// FilterIndex implements sahilm/fuzzy.Source over a rendered grid
type FilterIndex struct {
	videos []domain.Video
	keys   []string // lowercase "title channel"
}

// NewFilterIndex precomputes the match keys for videos
func NewFilterIndex(videos []domain.Video) *FilterIndex {
	keys := make([]string, len(videos))
	for i, v := range videos {
		keys[i] = strings.ToLower(v.Title + " " + v.Channel)
	}
	return &FilterIndex{videos: videos, keys: keys}
}

// String returns the match key at index i (implements fuzzy.Source)
func (idx *FilterIndex) String(i int) string { return idx.keys[i] }

// Len returns the number of videos (implements fuzzy.Source)
func (idx *FilterIndex) Len() int { return len(idx.videos) }

// FilterResult is a matched video and the positions that matched in its key
type FilterResult struct {
	Video          domain.Video
	Index          int
	MatchedIndexes []int
	Score          int
}

// Find ranks the indexed videos by fuzzy match against query, best first.
// Equal scores keep grid order. An empty query matches nothing.
func (idx *FilterIndex) Find(query string) []FilterResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	matches := fuzzy.FindFrom(query, idx)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Index < matches[j].Index
	})

	results := make([]FilterResult, len(matches))
	for i, m := range matches {
		results[i] = FilterResult{
			Video:          idx.videos[m.Index],
			Index:          m.Index,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// Filter returns the videos matching query, best first. An empty query
// returns videos unchanged.
func Filter(query string, videos []domain.Video) []domain.Video {
	if strings.TrimSpace(query) == "" {
		return videos
	}

	results := NewFilterIndex(videos).Find(query)
	out := make([]domain.Video, len(results))
	for i, r := range results {
		out[i] = r.Video
	}
	return out
}
