package comments

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/playloop/internal/domain"
)

// Fetcher loads one page of comments. An empty pageToken requests the first page.
type Fetcher interface {
	FetchComments(ctx context.Context, videoID string, order domain.CommentOrder, pageToken string) (domain.CommentPage, error)
}

// Snapshot is a copy of the cursor state for rendering
type Snapshot struct {
	VideoID       string
	Sort          domain.CommentOrder
	Comments      []domain.Comment
	NextPageToken string
	Unavailable   bool
	Loading       bool
}

// HasMore reports whether a further page can be loaded
func (s Snapshot) HasMore() bool {
	return s.NextPageToken != ""
}

// Cursor is the incremental comment loader for the active video.
// Every first-page load or reset starts a new generation; a response issued
// under an older generation is discarded with domain.ErrStaleResponse.
type Cursor struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu          sync.Mutex
	generation  uint64
	videoID     string
	sort        domain.CommentOrder
	comments    []domain.Comment
	token       string
	unavailable bool
	loading     bool
}

// NewCursor creates an empty cursor
func NewCursor(fetcher Fetcher, logger *slog.Logger) *Cursor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cursor{
		fetcher: fetcher,
		logger:  logger,
		sort:    domain.DefaultCommentOrder,
	}
}

// LoadFirstPage discards accumulated comments and the token, then fetches the
// first page for videoID in the given order
func (c *Cursor) LoadFirstPage(ctx context.Context, videoID string, sort domain.CommentOrder) (Snapshot, error) {
	return c.Fetch(ctx, c.Begin(videoID, sort))
}

// Begin resets the cursor to videoID and sort and returns the generation a
// following Fetch must present. Any load started earlier becomes stale.
func (c *Cursor) Begin(videoID string, sort domain.CommentOrder) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sort == "" {
		sort = domain.DefaultCommentOrder
	}
	c.generation++
	c.videoID = videoID
	c.sort = sort
	c.comments = nil
	c.token = ""
	c.unavailable = false
	c.loading = true
	return c.generation
}

// Fetch loads the first page for the state reserved by Begin. It returns
// domain.ErrStaleResponse without storing anything when gen is no longer current.
func (c *Cursor) Fetch(ctx context.Context, gen uint64) (Snapshot, error) {
	c.mu.Lock()
	if gen != c.generation {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, domain.ErrStaleResponse
	}
	videoID, sort := c.videoID, c.sort
	c.mu.Unlock()

	page, err := c.fetcher.FetchComments(ctx, videoID, sort, "")

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || videoID != c.videoID {
		c.logger.Debug("discarding stale comment page", "videoID", videoID, "sort", sort)
		return c.snapshotLocked(), domain.ErrStaleResponse
	}
	c.loading = false

	if err != nil {
		c.unavailable = true
		c.logger.Warn("failed to load comments", "videoID", videoID, "error", err)
		return c.snapshotLocked(), fmt.Errorf("failed to load comments for %s: %w", videoID, err)
	}

	c.comments = page.Comments
	c.token = page.NextPageToken
	return c.snapshotLocked(), nil
}

// LoadNextPage appends the next page. Without a token, or while another load
// is in flight, it is a no-op.
func (c *Cursor) LoadNextPage(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.token == "" || c.loading {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	gen := c.generation
	videoID, sort, token := c.videoID, c.sort, c.token
	c.loading = true
	c.mu.Unlock()

	page, err := c.fetcher.FetchComments(ctx, videoID, sort, token)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("discarding stale comment page", "videoID", videoID, "token", token)
		return c.snapshotLocked(), domain.ErrStaleResponse
	}
	c.loading = false

	if err != nil {
		c.logger.Warn("failed to load more comments", "videoID", videoID, "error", err)
		return c.snapshotLocked(), fmt.Errorf("failed to load more comments for %s: %w", videoID, err)
	}

	c.comments = append(c.comments, page.Comments...)
	c.token = page.NextPageToken
	return c.snapshotLocked(), nil
}

// SetSort reloads the first page of the current video in a new order
func (c *Cursor) SetSort(ctx context.Context, sort domain.CommentOrder) (Snapshot, error) {
	c.mu.Lock()
	videoID := c.videoID
	if videoID == "" {
		c.sort = sort
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	return c.LoadFirstPage(ctx, videoID, sort)
}

// Reset clears all state and invalidates in-flight loads
func (c *Cursor) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.videoID = ""
	c.sort = domain.DefaultCommentOrder
	c.comments = nil
	c.token = ""
	c.unavailable = false
	c.loading = false
}

// Snapshot returns a copy of the cursor state
func (c *Cursor) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cursor) snapshotLocked() Snapshot {
	comments := make([]domain.Comment, len(c.comments))
	copy(comments, c.comments)
	return Snapshot{
		VideoID:       c.videoID,
		Sort:          c.sort,
		Comments:      comments,
		NextPageToken: c.token,
		Unavailable:   c.unavailable,
		Loading:       c.loading,
	}
}
