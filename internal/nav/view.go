package nav

import (
	"github.com/mmcdole/playloop/internal/comments"
	"github.com/mmcdole/playloop/internal/domain"
	"github.com/mmcdole/playloop/internal/queue"
)

// View is everything a renderer needs to paint the current page
type View struct {
	State    domain.NavState
	Fragment string

	// Videos is the grid of every page except Watch
	Videos []domain.Video

	// Watch page
	Video    domain.Video
	Related  []domain.Video
	Queue    queue.Snapshot
	Comments comments.Snapshot
	Playback domain.PlaybackState

	Playlists  []string
	Membership []string // playlists holding Video

	Notice     string
	Loading    bool
	CanBack    bool
	CanForward bool
}

// Renderer receives a View after every transition and accepted background result
type Renderer interface {
	Render(View)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

type nopRenderer struct{}

func (nopRenderer) Render(View) {}
