package player

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/playloop/internal/domain"
)

// Handle owns at most one live player. Acquire always releases the previous
// player first, including when opening the new one fails.
type Handle struct {
	factory domain.PlayerFactory
	logger  *slog.Logger

	mu      sync.Mutex
	current domain.Player
	videoID string
}

// NewHandle creates an empty handle
func NewHandle(factory domain.PlayerFactory, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{factory: factory, logger: logger}
}

// Acquire releases any live player and opens one for video
func (h *Handle) Acquire(ctx context.Context, video domain.Video) (domain.Player, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.releaseLocked()

	p, err := h.factory.Open(ctx, video)
	if err != nil {
		h.logger.Error("failed to open player", "error", err, "videoID", video.ID)
		return nil, err
	}
	h.current = p
	h.videoID = video.ID
	return p, nil
}

// Release releases the live player, if any. Safe to call repeatedly.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releaseLocked()
}

func (h *Handle) releaseLocked() {
	if h.current == nil {
		return
	}
	if err := h.current.Release(); err != nil {
		h.logger.Warn("failed to release player", "error", err, "videoID", h.videoID)
	}
	h.current = nil
	h.videoID = ""
}

// Current returns the live player and the video it plays
func (h *Handle) Current() (domain.Player, string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.videoID, h.current != nil
}
