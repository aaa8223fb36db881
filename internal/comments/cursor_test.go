package comments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/playloop/internal/domain"
)

type pageKey struct {
	videoID string
	order   domain.CommentOrder
	token   string
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[pageKey]domain.CommentPage
	errs  map[pageKey]error
	gates map[pageKey]chan struct{} // fetch blocks until the gate is closed
	calls []pageKey
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[pageKey]domain.CommentPage),
		errs:  make(map[pageKey]error),
		gates: make(map[pageKey]chan struct{}),
	}
}

func (f *fakeFetcher) FetchComments(ctx context.Context, videoID string, order domain.CommentOrder, pageToken string) (domain.CommentPage, error) {
	key := pageKey{videoID, order, pageToken}

	f.mu.Lock()
	f.calls = append(f.calls, key)
	gate := f.gates[key]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[key]; err != nil {
		return domain.CommentPage{}, err
	}
	return f.pages[key], nil
}

func page(token string, ids ...string) domain.CommentPage {
	p := domain.CommentPage{NextPageToken: token}
	for _, id := range ids {
		p.Comments = append(p.Comments, domain.Comment{ID: id})
	}
	return p
}

func commentIDs(s Snapshot) []string {
	out := make([]string, len(s.Comments))
	for i, c := range s.Comments {
		out[i] = c.ID
	}
	return out
}

func TestLoadFirstPage(t *testing.T) {
	f := newFakeFetcher()
	f.pages[pageKey{"v1", domain.CommentOrderRelevance, ""}] = page("t1", "c1", "c2")

	c := NewCursor(f, nil)
	snap, err := c.LoadFirstPage(context.Background(), "v1", domain.CommentOrderRelevance)
	require.NoError(t, err)

	assert.Equal(t, "v1", snap.VideoID)
	assert.Equal(t, []string{"c1", "c2"}, commentIDs(snap))
	assert.Equal(t, "t1", snap.NextPageToken)
	assert.True(t, snap.HasMore())
	assert.False(t, snap.Loading)
}

func TestLoadNextPageAppends(t *testing.T) {
	f := newFakeFetcher()
	f.pages[pageKey{"v1", domain.CommentOrderRelevance, ""}] = page("t1", "c1")
	f.pages[pageKey{"v1", domain.CommentOrderRelevance, "t1"}] = page("t2", "c2")
	f.pages[pageKey{"v1", domain.CommentOrderRelevance, "t2"}] = page("", "c3")

	c := NewCursor(f, nil)
	ctx := context.Background()
	_, err := c.LoadFirstPage(ctx, "v1", domain.CommentOrderRelevance)
	require.NoError(t, err)
	_, err = c.LoadNextPage(ctx)
	require.NoError(t, err)
	snap, err := c.LoadNextPage(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2", "c3"}, commentIDs(snap))
	assert.False(t, snap.HasMore())

	calls := len(f.calls)
	snap, err = c.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, f.calls, calls, "no token means no fetch")
	assert.Len(t, snap.Comments, 3)
}

func TestLoadFirstPageDiscardsAccumulatedPages(t *testing.T) {
	f := newFakeFetcher()
	f.pages[pageKey{"v1", domain.CommentOrderRelevance, ""}] = page("t1", "c1")
	f.pages[pageKey{"v1", domain.CommentOrderRelevance, "t1"}] = page("t2", "c2")
	f.pages[pageKey{"v1", domain.CommentOrderTime, ""}] = page("", "n1")

	c := NewCursor(f, nil)
	ctx := context.Background()
	_, _ = c.LoadFirstPage(ctx, "v1", domain.CommentOrderRelevance)
	_, _ = c.LoadNextPage(ctx)

	snap, err := c.LoadFirstPage(ctx, "v1", domain.CommentOrderTime)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, commentIDs(snap))
	assert.Empty(t, snap.NextPageToken)
	assert.Equal(t, domain.CommentOrderTime, snap.Sort)
}

func TestSetSortReloads(t *testing.T) {
	f := newFakeFetcher()
	f.pages[pageKey{"v1", domain.CommentOrderRelevance, ""}] = page("t1", "c1")
	f.pages[pageKey{"v1", domain.CommentOrderTime, ""}] = page("", "n1", "n2")

	c := NewCursor(f, nil)
	ctx := context.Background()
	_, _ = c.LoadFirstPage(ctx, "v1", domain.CommentOrderRelevance)

	snap, err := c.SetSort(ctx, domain.CommentOrderTime)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2"}, commentIDs(snap))
	assert.Equal(t, pageKey{"v1", domain.CommentOrderTime, ""}, f.calls[len(f.calls)-1])
}

func TestSetSortWithoutVideo(t *testing.T) {
	f := newFakeFetcher()
	c := NewCursor(f, nil)

	snap, err := c.SetSort(context.Background(), domain.CommentOrderTime)
	require.NoError(t, err)
	assert.Equal(t, domain.CommentOrderTime, snap.Sort)
	assert.Empty(t, f.calls)
}

func TestFirstPageFailureMarksUnavailable(t *testing.T) {
	f := newFakeFetcher()
	f.errs[pageKey{"v1", domain.CommentOrderRelevance, ""}] = domain.ErrCatalogUnavailable

	c := NewCursor(f, nil)
	snap, err := c.LoadFirstPage(context.Background(), "v1", domain.CommentOrderRelevance)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.True(t, snap.Unavailable)
	assert.Empty(t, snap.Comments)
}

func TestNextPageFailureKeepsComments(t *testing.T) {
	f := newFakeFetcher()
	f.pages[pageKey{"v1", domain.CommentOrderRelevance, ""}] = page("t1", "c1")
	f.errs[pageKey{"v1", domain.CommentOrderRelevance, "t1"}] = errors.New("boom")

	c := NewCursor(f, nil)
	ctx := context.Background()
	_, _ = c.LoadFirstPage(ctx, "v1", domain.CommentOrderRelevance)

	snap, err := c.LoadNextPage(ctx)
	assert.Error(t, err)
	assert.Equal(t, []string{"c1"}, commentIDs(snap))
	assert.Equal(t, "t1", snap.NextPageToken, "token kept for retry")
	assert.False(t, snap.Unavailable)
}

func TestStaleFirstPageIsDiscarded(t *testing.T) {
	f := newFakeFetcher()
	slow := pageKey{"v1", domain.CommentOrderRelevance, ""}
	f.pages[slow] = page("t1", "old")
	f.pages[pageKey{"v2", domain.CommentOrderRelevance, ""}] = page("", "new")
	gate := make(chan struct{})
	f.gates[slow] = gate

	c := NewCursor(f, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.LoadFirstPage(ctx, "v1", domain.CommentOrderRelevance)
		done <- err
	}()

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.calls) == 1
	}, time.Second, time.Millisecond)

	_, err := c.LoadFirstPage(ctx, "v2", domain.CommentOrderRelevance)
	require.NoError(t, err)

	close(gate)
	assert.ErrorIs(t, <-done, domain.ErrStaleResponse)

	snap := c.Snapshot()
	assert.Equal(t, "v2", snap.VideoID)
	assert.Equal(t, []string{"new"}, commentIDs(snap))
}

func TestStaleNextPageIsDiscardedAfterReset(t *testing.T) {
	f := newFakeFetcher()
	f.pages[pageKey{"v1", domain.CommentOrderRelevance, ""}] = page("t1", "c1")
	slow := pageKey{"v1", domain.CommentOrderRelevance, "t1"}
	f.pages[slow] = page("", "c2")
	gate := make(chan struct{})
	f.gates[slow] = gate

	c := NewCursor(f, nil)
	ctx := context.Background()
	_, _ = c.LoadFirstPage(ctx, "v1", domain.CommentOrderRelevance)

	done := make(chan error, 1)
	go func() {
		_, err := c.LoadNextPage(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.calls) == 2
	}, time.Second, time.Millisecond)

	c.Reset()
	close(gate)
	assert.ErrorIs(t, <-done, domain.ErrStaleResponse)

	snap := c.Snapshot()
	assert.Empty(t, snap.VideoID)
	assert.Empty(t, snap.Comments)
	assert.Equal(t, domain.DefaultCommentOrder, snap.Sort)
}

func TestFetchRejectsGenerationReservedEarlier(t *testing.T) {
	f := newFakeFetcher()
	f.pages[pageKey{"a", domain.CommentOrderRelevance, ""}] = page("", "from-a")
	f.pages[pageKey{"b", domain.CommentOrderRelevance, ""}] = page("", "from-b")

	c := NewCursor(f, nil)
	ctx := context.Background()

	genA := c.Begin("a", domain.CommentOrderRelevance)
	genB := c.Begin("b", domain.CommentOrderRelevance)
	assert.True(t, c.Snapshot().Loading)

	// the older load runs last and must not take over
	snap, err := c.Fetch(ctx, genB)
	require.NoError(t, err)
	assert.Equal(t, []string{"from-b"}, commentIDs(snap))

	snap, err = c.Fetch(ctx, genA)
	assert.ErrorIs(t, err, domain.ErrStaleResponse)
	assert.Equal(t, "b", snap.VideoID)
	assert.Equal(t, []string{"from-b"}, commentIDs(snap))
	assert.Equal(t, []pageKey{{"b", domain.CommentOrderRelevance, ""}}, f.calls, "stale generation never reaches the catalog")
}

func TestBeginDefaultsSort(t *testing.T) {
	c := NewCursor(newFakeFetcher(), nil)
	c.Begin("a", "")
	assert.Equal(t, domain.DefaultCommentOrder, c.Snapshot().Sort)
}
