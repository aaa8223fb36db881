package queue

import (
	"errors"
	"sync"

	"github.com/mmcdole/playloop/internal/domain"
)

// ErrIndexOutOfRange indicates a start index outside the primary list
var ErrIndexOutOfRange = errors.New("queue index out of range")

// Snapshot is a copy of the queue state
type Snapshot struct {
	Primary []domain.Video
	Index   int
	Related []domain.Video
}

// Current returns the video at Index, if any
func (s Snapshot) Current() (domain.Video, bool) {
	if s.Index < 0 || s.Index >= len(s.Primary) {
		return domain.Video{}, false
	}
	return s.Primary[s.Index], true
}

// HasNext reports whether Next would return a video
func (s Snapshot) HasNext() bool {
	return (len(s.Primary) > 0 && s.Index < len(s.Primary)-1) || len(s.Related) > 0
}

// HasPrev reports whether Prev would return a video
func (s Snapshot) HasPrev() bool {
	return s.Index > 0
}

// Engine holds the primary queue with its cursor and the related fallback queue.
// Index is -1 exactly when the primary queue is empty.
type Engine struct {
	mu      sync.Mutex
	primary []domain.Video
	index   int
	related []domain.Video
}

// New creates an empty queue engine
func New() *Engine {
	return &Engine{index: -1}
}

// SetPrimary replaces the primary queue and its cursor. An empty list resets
// the cursor to -1.
func (e *Engine) SetPrimary(videos []domain.Video, start int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(videos) == 0 {
		e.primary = nil
		e.index = -1
		return nil
	}
	if start < 0 || start >= len(videos) {
		return ErrIndexOutOfRange
	}

	e.primary = clone(videos)
	e.index = start
	return nil
}

// SetRelated replaces the related queue
func (e *Engine) SetRelated(videos []domain.Video) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.related = clone(videos)
}

// Next advances within the primary queue. At its last element the related
// queue is promoted to primary at index 0 and is itself kept as the related
// queue until the next SetRelated. Returns false when both are exhausted.
func (e *Engine) Next() (domain.Video, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.primary) > 0 && e.index < len(e.primary)-1 {
		e.index++
		return e.primary[e.index], true
	}

	if len(e.related) == 0 {
		return domain.Video{}, false
	}

	e.primary = clone(e.related)
	e.index = 0
	return e.primary[0], true
}

// Prev steps back within the primary queue. It never wraps and never enters
// the related queue.
func (e *Engine) Prev() (domain.Video, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.index <= 0 {
		return domain.Video{}, false
	}
	e.index--
	return e.primary[e.index], true
}

// Current returns the video under the cursor
func (e *Engine) Current() (domain.Video, bool) {
	return e.Snapshot().Current()
}

// Snapshot returns a copy of the queue state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Primary: clone(e.primary),
		Index:   e.index,
		Related: clone(e.related),
	}
}

// IndexOf returns the position of videoID in videos, or -1
func IndexOf(videos []domain.Video, videoID string) int {
	for i, v := range videos {
		if v.ID == videoID {
			return i
		}
	}
	return -1
}

func clone(videos []domain.Video) []domain.Video {
	if videos == nil {
		return nil
	}
	out := make([]domain.Video, len(videos))
	copy(out, videos)
	return out
}
