package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/playloop/internal/comments"
	"github.com/mmcdole/playloop/internal/domain"
	"github.com/mmcdole/playloop/internal/library"
	"github.com/mmcdole/playloop/internal/player"
	"github.com/mmcdole/playloop/internal/queue"
)

// Searcher is the catalog-backed content source
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Video, error)
	RelatedTo(ctx context.Context, videoID, fallbackTitle string, limit int) ([]domain.Video, error)
	Trending(ctx context.Context, limit int) ([]domain.Video, error)
	Lookup(ctx context.Context, id string) (domain.Video, error)
}

// Deps are the collaborators of an Engine
type Deps struct {
	Search    Searcher
	Comments  comments.Fetcher
	Playlists *library.Playlists
	History   *library.History
	Players   domain.PlayerFactory
	Renderer  Renderer
	Logger    *slog.Logger

	// WatchInterval is the blurred-player poll interval (default one second)
	WatchInterval time.Duration

	// Now defaults to time.Now
	Now func() time.Time
}

// pushMode says what a transition does to the history stack
type pushMode int

const (
	pushEntry    pushMode = iota // user action
	replaceEntry                 // restore and fallbacks
	keepEntry                    // back/forward replay
)

// Engine is the navigation state machine. It owns the current page, the
// history stack, the queue, the comment cursor and the player, and applies
// one event at a time.
type Engine struct {
	search    Searcher
	playlists *library.Playlists
	history   *library.History
	queue     *queue.Engine
	comments  *comments.Cursor
	player    *player.Handle
	watchdog  *player.Watchdog
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	renderer Renderer
	stack    *History
	state    domain.NavState
	videos   []domain.Video
	current  domain.Video
	related  []domain.Video
	playback domain.PlaybackState
	notice   string
	blurred  bool

	// generation increases whenever the watched video changes or Watch is
	// left; background results carry the generation they were issued under
	generation uint64
	cancelBg   context.CancelFunc

	wg sync.WaitGroup
}

// New creates an engine on Home with an empty history stack
func New(deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = nopRenderer{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		search:    deps.Search,
		playlists: deps.Playlists,
		history:   deps.History,
		queue:     queue.New(),
		comments:  comments.NewCursor(deps.Comments, logger),
		player:    player.NewHandle(deps.Players, logger),
		watchdog:  player.NewWatchdog(deps.WatchInterval, logger),
		logger:    logger,
		now:       now,
		renderer:  renderer,
		stack:     NewHistory(),
		state:     domain.HomeState(),
	}
}

// SetRenderer replaces the renderer
func (e *Engine) SetRenderer(r Renderer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r == nil {
		r = nopRenderer{}
	}
	e.renderer = r
}

// State returns the current navigation state
func (e *Engine) State() domain.NavState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// View returns a snapshot of the current page
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// Stack returns the states of the history stack, oldest first, and the cursor
func (e *Engine) Stack() ([]domain.NavState, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stack.States(), e.stack.cursor
}

// Wait blocks until background fetches issued so far have finished
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close releases the player, stops the watchdog and abandons background work
func (e *Engine) Close() {
	e.mu.Lock()
	e.leaveWatchLocked()
	e.mu.Unlock()
	e.wg.Wait()
}

// Restore enters the state encoded in fragment, replacing the current history
// entry. A watch link is resolved through the catalog first; when that fails
// the engine shows Trending and returns an error wrapping
// domain.ErrDeepLinkResolutionFailed.
func (e *Engine) Restore(ctx context.Context, fragment string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := domain.DecodeFragment(fragment)
	if !ok {
		e.logger.Warn("unrecognized fragment, showing home", "fragment", fragment)
	}
	return e.applyLocked(ctx, s, replaceEntry)
}

// Back replays the previous history entry without pushing
func (e *Engine) Back(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.stack.Back()
	if !ok {
		return nil
	}
	return e.applyLocked(ctx, entry.State, keepEntry)
}

// Forward replays the next history entry without pushing
func (e *Engine) Forward(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.stack.Forward()
	if !ok {
		return nil
	}
	return e.applyLocked(ctx, entry.State, keepEntry)
}

// Dispatch applies one event. Events are serialized: a second event waits
// until the first has finished its transition.
func (e *Engine) Dispatch(ctx context.Context, ev Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Debug("dispatch", "event", ev.Kind.String(), "page", e.state.Page.String())

	switch ev.Kind {
	case EventHome:
		return e.showPageLocked(ctx, domain.HomeState(), pushEntry)
	case EventTrending:
		return e.showPageLocked(ctx, domain.TrendingState(), pushEntry)
	case EventHistory:
		return e.showPageLocked(ctx, domain.HistoryState(), pushEntry)
	case EventLibrary:
		return e.showPageLocked(ctx, domain.LibraryState(strings.TrimSpace(ev.Playlist)), pushEntry)
	case EventSearch:
		s := domain.SearchState(strings.TrimSpace(ev.Query))
		if !s.Valid() {
			return nil
		}
		return e.showPageLocked(ctx, s, pushEntry)
	case EventOpenVideo:
		return e.openFromGridLocked(ctx, ev)
	case EventPopState:
		return e.applyLocked(ctx, ev.State, keepEntry)
	case EventNext:
		return e.advanceLocked(ctx, e.queue.Next)
	case EventPrev:
		return e.advanceLocked(ctx, e.queue.Prev)
	case EventPlayerEnded:
		if e.state.Page != domain.PageWatch || ev.VideoID != e.current.ID {
			e.logger.Debug("ignoring end of inactive video", "videoID", ev.VideoID)
			return nil
		}
		return e.advanceLocked(ctx, e.queue.Next)
	case EventLoadMoreComments:
		e.loadMoreCommentsLocked()
		return nil
	case EventSetCommentSort:
		e.setCommentSortLocked(ev.Sort)
		return nil
	case EventCreatePlaylist:
		return e.createPlaylistLocked(ev.Playlist)
	case EventTogglePlaylist:
		return e.togglePlaylistLocked(ev.Playlist, ev.Video)
	case EventDeletePlaylist:
		return e.deletePlaylistLocked(ev.Playlist)
	case EventClearHistory:
		return e.clearHistoryLocked()
	case EventFocus:
		e.blurred = false
		e.watchdog.Stop()
		return nil
	case EventBlur:
		e.blurred = true
		e.startWatchdogLocked()
		return nil
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

// applyLocked enters s, resolving watch states through the catalog
func (e *Engine) applyLocked(ctx context.Context, s domain.NavState, mode pushMode) error {
	if !s.Valid() {
		s = domain.HomeState()
	}
	if s.Page != domain.PageWatch {
		return e.showPageLocked(ctx, s, mode)
	}

	e.renderLoadingLocked(s)
	video, err := e.search.Lookup(ctx, s.VideoID)
	if err != nil {
		e.logger.Error("failed to resolve watch link", "videoID", s.VideoID, "error", err)
		notice := fmt.Sprintf("Could not open video %s", s.VideoID)
		if showErr := e.fallbackToTrendingLocked(ctx, mode, notice); showErr != nil {
			return showErr
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrDeepLinkResolutionFailed, s.VideoID, err)
	}

	snap := e.queue.Snapshot()
	if i := queue.IndexOf(snap.Primary, video.ID); i >= 0 {
		_ = e.queue.SetPrimary(snap.Primary, i)
	} else {
		_ = e.queue.SetPrimary([]domain.Video{video}, 0)
	}
	return e.openVideoLocked(ctx, video, mode)
}

// fallbackToTrendingLocked shows Trending in place of a page that could not be
// built. The failed page never stays on the history stack.
func (e *Engine) fallbackToTrendingLocked(ctx context.Context, mode pushMode, notice string) error {
	if mode == keepEntry {
		mode = replaceEntry
	}
	if err := e.showPageLocked(ctx, domain.TrendingState(), mode); err != nil {
		return err
	}
	if e.notice == "" {
		e.notice = notice
	} else {
		e.notice = notice + ". " + e.notice
	}
	e.renderLocked()
	return nil
}

// showPageLocked enters any non-Watch page
func (e *Engine) showPageLocked(ctx context.Context, s domain.NavState, mode pushMode) error {
	e.leaveWatchLocked()
	e.renderLoadingLocked(s)

	var (
		videos []domain.Video
		notice string
	)

	switch s.Page {
	case domain.PageHome, domain.PageTrending:
		var err error
		videos, err = e.search.Trending(ctx, 0)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Error("failed to load trending", "error", err)
			notice = "Trending videos are unavailable right now"
		}

	case domain.PageSearch:
		var err error
		videos, err = e.search.Search(ctx, s.Query, 0)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Error("search failed", "query", s.Query, "error", err)
			return e.fallbackToTrendingLocked(ctx, mode, fmt.Sprintf("Search for %q failed", s.Query))
		}
		if len(videos) == 0 {
			notice = fmt.Sprintf("No results for %q", s.Query)
		}

	case domain.PageHistory:
		videos = e.history.Videos()
		if len(videos) == 0 {
			notice = "No watch history yet"
		}

	case domain.PageLibrary:
		videos, notice = e.libraryVideosLocked(s.Playlist)
	}

	e.recordLocked(s, mode)
	e.state = s
	e.videos = videos
	e.notice = notice
	e.renderLocked()
	return nil
}

func (e *Engine) libraryVideosLocked(name string) ([]domain.Video, string) {
	if name == "" {
		videos := e.playlists.All()
		if len(videos) == 0 {
			return videos, "No saved videos yet"
		}
		return videos, ""
	}
	videos, ok := e.playlists.Videos(name)
	if !ok {
		e.logger.Warn("playlist not found", "name", name, "error", domain.ErrPlaylistNotFound)
		return nil, fmt.Sprintf("Playlist %q does not exist", name)
	}
	if len(videos) == 0 {
		return videos, fmt.Sprintf("Playlist %q is empty", name)
	}
	return videos, ""
}

func (e *Engine) openFromGridLocked(ctx context.Context, ev Event) error {
	list := ev.List
	index := ev.Index
	if len(list) == 0 {
		if ev.Video.ID == "" {
			return nil
		}
		list = []domain.Video{ev.Video}
		index = 0
	}
	if err := e.queue.SetPrimary(list, index); err != nil {
		return fmt.Errorf("failed to open video %d of %d: %w", index, len(list), err)
	}
	return e.openVideoLocked(ctx, list[index], pushEntry)
}

func (e *Engine) advanceLocked(ctx context.Context, step func() (domain.Video, bool)) error {
	video, ok := step()
	if !ok {
		e.notice = "Nothing more to play"
		e.renderLocked()
		return nil
	}
	return e.openVideoLocked(ctx, video, pushEntry)
}

// openVideoLocked enters Watch{video}
func (e *Engine) openVideoLocked(ctx context.Context, video domain.Video, mode pushMode) error {
	gen, bgCtx := e.nextGenerationLocked()

	if err := e.history.Record(video, e.now()); err != nil {
		e.logger.Error("failed to record history", "videoID", video.ID, "error", err)
	}

	s := domain.WatchState(video.ID)
	e.recordLocked(s, mode)
	e.state = s
	e.current = video
	e.videos = nil
	e.related = nil
	e.playback = domain.PlaybackUnstarted
	e.notice = ""

	p, err := e.player.Acquire(ctx, video)
	if err != nil {
		e.notice = "Player unavailable: " + err.Error()
	} else {
		go e.watchPlayer(p, video.ID, gen)
		if e.blurred {
			e.watchdog.Start(p)
		}
	}

	e.fetchWatchDataLocked(bgCtx, gen, video)
	e.renderLocked()
	return nil
}

// leaveWatchLocked releases everything owned by the Watch page
func (e *Engine) leaveWatchLocked() {
	if e.cancelBg != nil {
		e.cancelBg()
		e.cancelBg = nil
	}
	e.generation++
	e.watchdog.Stop()
	e.player.Release()
	e.comments.Reset()
	e.current = domain.Video{}
	e.related = nil
	e.playback = domain.PlaybackUnstarted
}

func (e *Engine) nextGenerationLocked() (uint64, context.Context) {
	e.leaveWatchLocked()
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelBg = cancel
	return e.generation, ctx
}

func (e *Engine) isCurrentLocked(gen uint64) bool {
	return gen == e.generation && e.state.Page == domain.PageWatch
}

// fetchWatchDataLocked loads related videos and the first comment page in the
// background. Results for a superseded generation are dropped.
func (e *Engine) fetchWatchDataLocked(ctx context.Context, gen uint64, video domain.Video) {
	commentGen := e.comments.Begin(video.ID, domain.DefaultCommentOrder)
	e.wg.Add(2)

	go func() {
		defer e.wg.Done()
		related, err := e.search.RelatedTo(ctx, video.ID, video.Title, 0)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.isCurrentLocked(gen) {
			e.logger.Debug("discarding related videos", "videoID", video.ID, "error", domain.ErrStaleResponse)
			return
		}
		if err != nil {
			e.logger.Warn("failed to load related videos", "videoID", video.ID, "error", err)
			return
		}
		e.queue.SetRelated(related)
		e.related = related
		e.renderLocked()
	}()

	go func() {
		defer e.wg.Done()
		_, err := e.comments.Fetch(ctx, commentGen)
		if errors.Is(err, domain.ErrStaleResponse) {
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.isCurrentLocked(gen) {
			e.logger.Debug("discarding comments", "videoID", video.ID, "error", domain.ErrStaleResponse)
			return
		}
		e.renderLocked()
	}()
}

func (e *Engine) loadMoreCommentsLocked() {
	if e.state.Page != domain.PageWatch {
		return
	}
	gen := e.generation
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_, err := e.comments.LoadNextPage(context.Background())
		if errors.Is(err, domain.ErrStaleResponse) {
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.isCurrentLocked(gen) {
			return
		}
		if err != nil {
			e.notice = "Could not load more comments"
		}
		e.renderLocked()
	}()
}

func (e *Engine) setCommentSortLocked(sort domain.CommentOrder) {
	if e.state.Page != domain.PageWatch {
		return
	}
	if sort == "" {
		sort = e.comments.Snapshot().Sort.Toggle()
	}
	gen := e.generation
	commentGen := e.comments.Begin(e.current.ID, sort)
	e.renderLocked()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_, err := e.comments.Fetch(context.Background(), commentGen)
		if errors.Is(err, domain.ErrStaleResponse) {
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.isCurrentLocked(gen) {
			e.renderLocked()
		}
	}()
}

func (e *Engine) watchPlayer(p domain.Player, videoID string, gen uint64) {
	for st := range p.Events() {
		e.mu.Lock()
		current := e.isCurrentLocked(gen)
		if current {
			e.playback = st
			e.renderLocked()
		}
		e.mu.Unlock()

		if !current {
			return
		}
		if st == domain.PlaybackEnded {
			if err := e.Dispatch(context.Background(), Event{Kind: EventPlayerEnded, VideoID: videoID}); err != nil {
				e.logger.Error("failed to continue playback", "videoID", videoID, "error", err)
			}
		}
	}
}

func (e *Engine) startWatchdogLocked() {
	if e.state.Page != domain.PageWatch {
		return
	}
	p, _, ok := e.player.Current()
	if !ok || p.State() != domain.PlaybackStarted {
		return
	}
	e.watchdog.Start(p)
}

func (e *Engine) createPlaylistLocked(name string) error {
	created, err := e.playlists.Create(name)
	if err != nil {
		e.notice = "Could not create playlist: " + err.Error()
		e.renderLocked()
		return err
	}
	if created {
		e.notice = fmt.Sprintf("Created playlist %q", strings.TrimSpace(name))
	}
	e.refreshLocked()
	return nil
}

func (e *Engine) togglePlaylistLocked(name string, video domain.Video) error {
	if video.ID == "" {
		if e.state.Page != domain.PageWatch {
			return nil
		}
		video = e.current
	}

	in, err := e.playlists.Toggle(name, video)
	if err != nil {
		e.notice = "Could not update playlist: " + err.Error()
		e.renderLocked()
		return err
	}
	if in {
		e.notice = fmt.Sprintf("Saved to %q", name)
	} else {
		e.notice = fmt.Sprintf("Removed from %q", name)
	}
	e.refreshLocked()
	return nil
}

func (e *Engine) deletePlaylistLocked(name string) error {
	if err := e.playlists.Delete(name); err != nil {
		e.notice = "Could not delete playlist: " + err.Error()
		e.renderLocked()
		return err
	}
	e.notice = fmt.Sprintf("Deleted playlist %q", name)
	e.refreshLocked()
	return nil
}

func (e *Engine) clearHistoryLocked() error {
	if err := e.history.Clear(); err != nil {
		e.notice = "Could not clear history: " + err.Error()
		e.renderLocked()
		return err
	}
	e.notice = "History cleared"
	e.refreshLocked()
	return nil
}

// refreshLocked reloads local page data after a library mutation
func (e *Engine) refreshLocked() {
	switch e.state.Page {
	case domain.PageHistory:
		e.videos = e.history.Videos()
	case domain.PageLibrary:
		notice := e.notice
		e.videos, e.notice = e.libraryVideosLocked(e.state.Playlist)
		if notice != "" {
			e.notice = notice
		}
	}
	e.renderLocked()
}

// recordLocked applies the history-stack discipline for a transition
func (e *Engine) recordLocked(s domain.NavState, mode pushMode) {
	switch mode {
	case pushEntry:
		e.stack.Push(s)
	case replaceEntry:
		e.stack.Replace(s)
	case keepEntry:
		if _, ok := e.stack.Current(); !ok {
			e.stack.Push(s)
		}
	}
}

func (e *Engine) viewLocked() View {
	v := View{
		State:      e.state,
		Fragment:   e.state.Fragment(),
		Videos:     e.videos,
		Playlists:  e.playlists.Names(),
		Notice:     e.notice,
		CanBack:    e.stack.CanBack(),
		CanForward: e.stack.CanForward(),
		Queue:      e.queue.Snapshot(),
	}
	if e.state.Page == domain.PageWatch {
		v.Video = e.current
		v.Related = e.related
		v.Comments = e.comments.Snapshot()
		v.Playback = e.playback
		v.Membership = e.playlists.Membership(e.current.ID)
	}
	return v
}

func (e *Engine) renderLocked() {
	e.renderer.Render(e.viewLocked())
}

func (e *Engine) renderLoadingLocked(s domain.NavState) {
	v := e.viewLocked()
	v.State = s
	v.Fragment = s.Fragment()
	v.Videos = nil
	v.Notice = ""
	v.Loading = true
	e.renderer.Render(v)
}
