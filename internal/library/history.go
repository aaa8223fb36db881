package library

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/playloop/internal/domain"
)

// MaxHistoryEntries bounds the watch history
const MaxHistoryEntries = 200

// History is the most-recently-watched set, newest first. Re-watching a video
// moves it to the front with a fresh timestamp.
type History struct {
	store  domain.Store
	logger *slog.Logger

	mu      sync.RWMutex
	entries []domain.HistoryEntry
}

// NewHistory loads the history log from store
func NewHistory(store domain.Store, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	entries, ok := store.GetHistory()
	if !ok {
		logger.Debug("no saved history")
	}
	if len(entries) > MaxHistoryEntries {
		entries = entries[:MaxHistoryEntries]
	}
	return &History{store: store, logger: logger, entries: entries}
}

// Record moves video to the front of the log, stamped with at
func (h *History) Record(video domain.Video, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]domain.HistoryEntry, 0, min(len(h.entries)+1, MaxHistoryEntries))
	next = append(next, domain.HistoryEntry{Video: video, WatchedAt: at})
	for _, e := range h.entries {
		if len(next) == MaxHistoryEntries {
			break
		}
		if e.Video.ID == video.ID {
			continue
		}
		next = append(next, e)
	}

	if err := h.store.SaveHistory(next); err != nil {
		h.logger.Error("failed to save history", "error", err, "videoID", video.ID)
		return err
	}
	h.entries = next
	return nil
}

// Entries returns the log, newest first
func (h *History) Entries() []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.entries)
}

// Videos returns the watched videos, newest first
func (h *History) Videos() []domain.Video {
	h.mu.RLock()
	defer h.mu.RUnlock()

	videos := make([]domain.Video, len(h.entries))
	for i, e := range h.entries {
		videos[i] = e.Video
	}
	return videos
}

// Clear empties the log
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.SaveHistory([]domain.HistoryEntry{}); err != nil {
		h.logger.Error("failed to clear history", "error", err)
		return err
	}
	h.entries = nil
	h.logger.Info("cleared history")
	return nil
}

// Search fuzzy-matches query against titles and channels, closest first.
// An empty query returns the whole log.
func (h *History) Search(query string) []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	query = strings.TrimSpace(query)
	if query == "" {
		return slices.Clone(h.entries)
	}

	targets := make([]string, len(h.entries))
	for i, e := range h.entries {
		targets[i] = e.Video.Title + " " + e.Video.Channel
	}

	ranks := fuzzy.RankFindFold(query, targets)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]domain.HistoryEntry, len(ranks))
	for i, r := range ranks {
		out[i] = h.entries[r.OriginalIndex]
	}
	return out
}
