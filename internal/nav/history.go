package nav

import (
	"github.com/google/uuid"

	"github.com/mmcdole/playloop/internal/domain"
)

// Entry is one browser-history entry
type Entry struct {
	ID    string
	State domain.NavState
}

// History is the back/forward stack. Pushing discards any forward entries.
type History struct {
	entries []Entry
	cursor  int
}

// NewHistory creates an empty stack
func NewHistory() *History {
	return &History{cursor: -1}
}

// Push appends a new entry after the cursor and moves onto it
func (h *History) Push(s domain.NavState) Entry {
	e := Entry{ID: uuid.NewString(), State: s}
	h.entries = append(h.entries[:h.cursor+1], e)
	h.cursor = len(h.entries) - 1
	return e
}

// Replace overwrites the entry under the cursor, or pushes onto an empty stack
func (h *History) Replace(s domain.NavState) Entry {
	if h.cursor < 0 {
		return h.Push(s)
	}
	e := Entry{ID: uuid.NewString(), State: s}
	h.entries[h.cursor] = e
	return e
}

// Back moves the cursor to the previous entry
func (h *History) Back() (Entry, bool) {
	if h.cursor <= 0 {
		return Entry{}, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Forward moves the cursor to the next entry
func (h *History) Forward() (Entry, bool) {
	if h.cursor >= len(h.entries)-1 {
		return Entry{}, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Current returns the entry under the cursor
func (h *History) Current() (Entry, bool) {
	if h.cursor < 0 {
		return Entry{}, false
	}
	return h.entries[h.cursor], true
}

func (h *History) CanBack() bool    { return h.cursor > 0 }
func (h *History) CanForward() bool { return h.cursor < len(h.entries)-1 }
func (h *History) Len() int         { return len(h.entries) }

// States returns the states of all entries, oldest first
func (h *History) States() []domain.NavState {
	out := make([]domain.NavState, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.State
	}
	return out
}
