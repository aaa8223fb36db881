package library

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mmcdole/playloop/internal/domain"
)

// Playlists is the user's named playlist collection. Names are unique and
// trimmed; a video appears at most once per playlist. Every mutation is
// persisted before it becomes visible.
type Playlists struct {
	store  domain.Store
	logger *slog.Logger

	mu    sync.RWMutex
	lists []domain.Playlist
}

// NewPlaylists loads the collection from store
func NewPlaylists(store domain.Store, logger *slog.Logger) *Playlists {
	if logger == nil {
		logger = slog.Default()
	}
	lists, ok := store.GetPlaylists()
	if !ok {
		logger.Debug("no saved playlists")
	}
	return &Playlists{store: store, logger: logger, lists: lists}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrInvalidPlaylistName
	}
	return name, nil
}

func (p *Playlists) indexOf(name string) int {
	return slices.IndexFunc(p.lists, func(pl domain.Playlist) bool { return pl.Name == name })
}

// commit persists next and swaps it in. Caller holds the write lock.
func (p *Playlists) commit(next []domain.Playlist) error {
	if err := p.store.SavePlaylists(next); err != nil {
		p.logger.Error("failed to save playlists", "error", err)
		return err
	}
	p.lists = next
	return nil
}

func (p *Playlists) cloneLocked() []domain.Playlist {
	out := make([]domain.Playlist, len(p.lists))
	for i, pl := range p.lists {
		out[i] = domain.Playlist{Name: pl.Name, Videos: slices.Clone(pl.Videos)}
	}
	return out
}

// Create adds an empty playlist. Creating an existing name is a no-op that
// reports created=false and leaves its contents untouched.
func (p *Playlists) Create(name string) (created bool, err error) {
	name, err = normalizeName(name)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.indexOf(name) >= 0 {
		return false, nil
	}

	next := append(p.cloneLocked(), domain.Playlist{Name: name})
	if err := p.commit(next); err != nil {
		return false, err
	}
	p.logger.Info("created playlist", "name", name)
	return true, nil
}

// Delete removes a playlist
func (p *Playlists) Delete(name string) error {
	name = strings.TrimSpace(name)

	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, name)
	}

	next := slices.Delete(p.cloneLocked(), i, i+1)
	if err := p.commit(next); err != nil {
		return err
	}
	p.logger.Info("deleted playlist", "name", name)
	return nil
}

// Add appends video to a playlist. Returns false when it was already present.
func (p *Playlists) Add(name string, video domain.Video) (bool, error) {
	name = strings.TrimSpace(name)

	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(name)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, name)
	}
	if p.lists[i].Contains(video.ID) {
		return false, nil
	}

	next := p.cloneLocked()
	next[i].Videos = append(next[i].Videos, video)
	if err := p.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops a video from a playlist. Returns false when it was not present.
func (p *Playlists) Remove(name, videoID string) (bool, error) {
	name = strings.TrimSpace(name)

	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(name)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, name)
	}
	j := slices.IndexFunc(p.lists[i].Videos, func(v domain.Video) bool { return v.ID == videoID })
	if j < 0 {
		return false, nil
	}

	next := p.cloneLocked()
	next[i].Videos = slices.Delete(next[i].Videos, j, j+1)
	if err := p.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

// Toggle adds video to the playlist, or removes it when already present.
// Returns whether the video is in the playlist afterwards.
func (p *Playlists) Toggle(name string, video domain.Video) (bool, error) {
	name = strings.TrimSpace(name)

	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexOf(name)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, name)
	}

	next := p.cloneLocked()
	j := slices.IndexFunc(next[i].Videos, func(v domain.Video) bool { return v.ID == video.ID })
	if j >= 0 {
		next[i].Videos = slices.Delete(next[i].Videos, j, j+1)
	} else {
		next[i].Videos = append(next[i].Videos, video)
	}

	if err := p.commit(next); err != nil {
		return j >= 0, err
	}
	return j < 0, nil
}

// Names returns playlist names in creation order
func (p *Playlists) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.lists))
	for i, pl := range p.lists {
		names[i] = pl.Name
	}
	return names
}

// Videos returns the contents of a playlist
func (p *Playlists) Videos(name string) ([]domain.Video, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i := p.indexOf(strings.TrimSpace(name))
	if i < 0 {
		return nil, false
	}
	return slices.Clone(p.lists[i].Videos), true
}

// All returns every saved video across playlists, first occurrence wins
func (p *Playlists) All() []domain.Video {
	p.mu.RLock()
	defer p.mu.RUnlock()

	seen := make(map[string]bool)
	var out []domain.Video
	for _, pl := range p.lists {
		for _, v := range pl.Videos {
			if seen[v.ID] {
				continue
			}
			seen[v.ID] = true
			out = append(out, v)
		}
	}
	return out
}

// Contains reports whether the named playlist holds videoID
func (p *Playlists) Contains(name, videoID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i := p.indexOf(strings.TrimSpace(name))
	return i >= 0 && p.lists[i].Contains(videoID)
}

// Membership returns the names of the playlists holding videoID
func (p *Playlists) Membership(videoID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var names []string
	for _, pl := range p.lists {
		if pl.Contains(videoID) {
			names = append(names, pl.Name)
		}
	}
	return names
}

// List returns a copy of the collection
func (p *Playlists) List() []domain.Playlist {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cloneLocked()
}
