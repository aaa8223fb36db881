package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/playloop/internal/comments"
	"github.com/mmcdole/playloop/internal/domain"
	"github.com/mmcdole/playloop/internal/nav"
)

type fakeEngine struct {
	events   []nav.Event
	restored []string
	backs    int
	forwards int
	failWith error
}

func (f *fakeEngine) Dispatch(ctx context.Context, ev nav.Event) error {
	f.events = append(f.events, ev)
	return f.failWith
}

func (f *fakeEngine) Restore(ctx context.Context, fragment string) error {
	f.restored = append(f.restored, fragment)
	return f.failWith
}

func (f *fakeEngine) Back(ctx context.Context) error {
	f.backs++
	return nil
}

func (f *fakeEngine) Forward(ctx context.Context) error {
	f.forwards++
	return nil
}

func (f *fakeEngine) last(t *testing.T) nav.Event {
	t.Helper()
	require.NotEmpty(t, f.events)
	return f.events[len(f.events)-1]
}

func videos(titles ...string) []domain.Video {
	out := make([]domain.Video, len(titles))
	for i, title := range titles {
		out[i] = domain.Video{ID: string(rune('a' + i)), Title: title, Channel: "Channel"}
	}
	return out
}

func newTestModel(engine *fakeEngine) Model {
	m := NewModel(engine, "#home")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(s string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return msgs
}

func run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func homeView(list []domain.Video) nav.View {
	return nav.View{State: domain.HomeState(), Fragment: "#home", Videos: list}
}

func TestInitRestoresFragment(t *testing.T) {
	fe := &fakeEngine{}
	m := NewModel(fe, "#watch=abc")

	batch, ok := m.Init()().(tea.BatchMsg)
	require.True(t, ok)
	for _, cmd := range batch {
		run(cmd)
	}
	assert.Equal(t, []string{"#watch=abc"}, fe.restored)
}

func TestSearchSubmitDispatches(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)

	m, _ = send(t, m, keyRunes("/"))
	assert.Equal(t, ModeSearch, m.Mode)

	m, _ = send(t, m, typeText("lofi")...)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeBrowse, m.Mode)

	run(cmd)
	ev := fe.last(t)
	assert.Equal(t, nav.EventSearch, ev.Kind)
	assert.Equal(t, "lofi", ev.Query)
}

func TestBlankSearchDoesNothing(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)

	m, _ = send(t, m, keyRunes("/"))
	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, fe.events)
}

func TestOpenSelectedVideo(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)
	list := videos("One", "Two", "Three")

	m, _ = send(t, m, ViewMsg{View: homeView(list)}, keyRunes("j"))
	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	run(cmd)

	ev := fe.last(t)
	assert.Equal(t, nav.EventOpenVideo, ev.Kind)
	assert.Equal(t, 1, ev.Index)
	assert.Equal(t, list, ev.List)
}

func TestCursorStaysInBounds(t *testing.T) {
	m := newTestModel(&fakeEngine{})
	m, _ = send(t, m, ViewMsg{View: homeView(videos("One", "Two"))})

	m, _ = send(t, m, keyRunes("k"), keyRunes("k"))
	assert.Equal(t, 0, m.cursor)
	m, _ = send(t, m, keyRunes("j"), keyRunes("j"), keyRunes("j"))
	assert.Equal(t, 1, m.cursor)

	m, _ = send(t, m, ViewMsg{View: nav.View{State: domain.TrendingState(), Fragment: "#trending", Videos: videos("X")}})
	assert.Equal(t, 0, m.cursor)
}

func TestFilterOpensFromFullList(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)
	list := videos("Jazz piano", "Lofi beats to study", "Synthwave mix")

	m, _ = send(t, m, ViewMsg{View: homeView(list)}, keyRunes("f"))
	require.Equal(t, ModeFilter, m.Mode)

	m, _ = send(t, m, typeText("lofi")...)
	rows := m.rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Lofi beats to study", rows[0].video.Title)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeBrowse, m.Mode)
	run(cmd)

	ev := fe.last(t)
	assert.Equal(t, nav.EventOpenVideo, ev.Kind)
	assert.Equal(t, 1, ev.Index)
	assert.Len(t, ev.List, 3)
}

func TestFilterEscapeRestoresList(t *testing.T) {
	m := newTestModel(&fakeEngine{})
	m, _ = send(t, m, ViewMsg{View: homeView(videos("Jazz", "Lofi"))}, keyRunes("f"))
	m, _ = send(t, m, typeText("zzz")...)
	assert.Empty(t, m.rows())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeBrowse, m.Mode)
	assert.Len(t, m.rows(), 2)
}

func TestFocusAndBlurDispatch(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)

	m, cmd := send(t, m, tea.BlurMsg{})
	run(cmd)
	assert.Equal(t, nav.EventBlur, fe.last(t).Kind)

	_, cmd = send(t, m, tea.FocusMsg{})
	run(cmd)
	assert.Equal(t, nav.EventFocus, fe.last(t).Kind)
}

func TestWatchPageKeys(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)
	watch := nav.View{
		State:     domain.WatchState("a"),
		Fragment:  "#watch=a",
		Video:     domain.Video{ID: "a", Title: "Now playing"},
		Related:   videos("Related one"),
		Playlists: []string{"Chill", "Work"},
		Comments:  comments.Snapshot{VideoID: "a", Sort: domain.CommentOrderRelevance, NextPageToken: "p2"},
	}
	m, _ = send(t, m, ViewMsg{View: watch})

	_, cmd := send(t, m, keyRunes("n"))
	run(cmd)
	assert.Equal(t, nav.EventNext, fe.last(t).Kind)

	_, cmd = send(t, m, keyRunes("c"))
	run(cmd)
	assert.Equal(t, nav.EventLoadMoreComments, fe.last(t).Kind)

	_, cmd = send(t, m, keyRunes("s"))
	run(cmd)
	assert.Equal(t, nav.EventSetCommentSort, fe.last(t).Kind)
	assert.Equal(t, domain.CommentOrderTime, fe.last(t).Sort)

	m, _ = send(t, m, keyRunes("a"))
	require.Equal(t, ModePlaylists, m.Mode)
	m, cmd = send(t, m, keyRunes("j"), keyRunes(" "))
	run(cmd)
	ev := fe.last(t)
	assert.Equal(t, nav.EventTogglePlaylist, ev.Kind)
	assert.Equal(t, "Work", ev.Playlist)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeBrowse, m.Mode)

	assert.Contains(t, m.View(), "Now playing")
}

func TestWatchOnlyKeysIgnoredElsewhere(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)
	m, _ = send(t, m, ViewMsg{View: homeView(videos("One"))})

	_, cmd := send(t, m, keyRunes("n"))
	assert.Nil(t, cmd)
	_, cmd = send(t, m, keyRunes("a"))
	assert.Nil(t, cmd)
	assert.Empty(t, fe.events)
}

func TestNewPlaylistPrompt(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)

	m, _ = send(t, m, keyRunes("N"))
	require.Equal(t, ModeNewPlaylist, m.Mode)
	m, _ = send(t, m, typeText("Chill")...)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeBrowse, m.Mode)

	run(cmd)
	ev := fe.last(t)
	assert.Equal(t, nav.EventCreatePlaylist, ev.Kind)
	assert.Equal(t, "Chill", ev.Playlist)
}

func TestClearHistoryNeedsConfirmation(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)

	m, _ = send(t, m, keyRunes("X"))
	require.Equal(t, ModeConfirm, m.Mode)
	m, cmd := send(t, m, keyRunes("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, ModeBrowse, m.Mode)
	assert.Empty(t, fe.events)

	m, _ = send(t, m, keyRunes("X"))
	_, cmd = send(t, m, keyRunes("y"))
	run(cmd)
	assert.Equal(t, nav.EventClearHistory, fe.last(t).Kind)
}

func TestLibraryPlaylistKeys(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)
	lib := nav.View{State: domain.LibraryState("Chill"), Fragment: "#library=Chill", Playlists: []string{"Chill", "Work"}}
	m, _ = send(t, m, ViewMsg{View: lib})

	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	run(cmd)
	ev := fe.last(t)
	assert.Equal(t, nav.EventLibrary, ev.Kind)
	assert.Equal(t, "Work", ev.Playlist)

	m, _ = send(t, m, keyRunes("x"))
	require.Equal(t, ModeConfirm, m.Mode)
	_, cmd = send(t, m, keyRunes("y"))
	run(cmd)
	ev = fe.last(t)
	assert.Equal(t, nav.EventDeletePlaylist, ev.Kind)
	assert.Equal(t, "Chill", ev.Playlist)
}

func TestBackAndForward(t *testing.T) {
	fe := &fakeEngine{}
	m := newTestModel(fe)

	_, cmd := send(t, m, keyRunes("["))
	run(cmd)
	_, cmd = send(t, m, keyRunes("]"))
	run(cmd)
	assert.Equal(t, 1, fe.backs)
	assert.Equal(t, 1, fe.forwards)
}

func TestDispatchErrorShowsStatus(t *testing.T) {
	fe := &fakeEngine{failWith: errors.New("boom")}
	m := newTestModel(fe)

	_, cmd := send(t, m, keyRunes("t"))
	msg := run(cmd)
	require.IsType(t, ErrMsg{}, msg)

	m, _ = send(t, m, msg)
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "boom")
	assert.Contains(t, m.View(), "boom")
}

func TestNextPlaylist(t *testing.T) {
	names := []string{"A", "B"}
	assert.Equal(t, "A", nextPlaylist(names, ""))
	assert.Equal(t, "B", nextPlaylist(names, "A"))
	assert.Equal(t, "", nextPlaylist(names, "B"))
	assert.Equal(t, "", nextPlaylist(nil, ""))
	assert.Equal(t, "", nextPlaylist(names, "gone"))
}

func TestProgramRendererSendsViewMsg(t *testing.T) {
	var got []tea.Msg
	r := &ProgramRenderer{send: func(msg tea.Msg) { got = append(got, msg) }}

	r.Render(homeView(nil))
	require.Len(t, got, 1)
	assert.Equal(t, "#home", got[0].(ViewMsg).View.Fragment)
}
