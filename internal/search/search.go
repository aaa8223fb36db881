package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/playloop/internal/catalog"
	"github.com/mmcdole/playloop/internal/domain"
)

const (
	DefaultSearchLimit   = 50
	DefaultRelatedLimit  = 25
	DefaultTrendingLimit = 50

	// DateQueryLimit caps the recency-ordered half of a search
	DateQueryLimit = 25

	// RecencyWindow and RecencyBoost promote recently published videos
	RecencyWindow = 7 * 24 * time.Hour
	RecencyBoost  = 10

	// DefaultRegion is used for the trending chart when none is configured
	DefaultRegion = "US"

	fallbackQueryWords = 3
)

// Catalog is the subset of the catalog client the pipeline needs
type Catalog interface {
	FetchTrending(ctx context.Context, region string, limit int) ([]catalog.VideoResource, error)
	SearchByText(ctx context.Context, text string, order catalog.SearchOrder, band catalog.DurationBand, limit int) ([]string, error)
	SearchRelated(ctx context.Context, videoID string, limit int) ([]string, error)
	FetchDetails(ctx context.Context, ids []string) ([]catalog.VideoResource, error)
}

// Service turns raw catalog queries into ranked, deduplicated video lists
type Service struct {
	catalog Catalog
	region  string
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new search service
func NewService(cat Catalog, region string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if region == "" {
		region = DefaultRegion
	}
	return &Service{
		catalog: cat,
		region:  region,
		logger:  logger,
		now:     time.Now,
	}
}

// Search runs the relevance and date queries concurrently, merges their ids,
// fetches details in batches and ranks the result. A failure of one query
// degrades to the other's ids; only a failure of both is returned.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]domain.Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Video{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var (
		relevanceIDs, dateIDs []string
		relevanceErr, dateErr error
		g                     errgroup.Group
	)
	g.Go(func() error {
		relevanceIDs, relevanceErr = s.catalog.SearchByText(ctx, query, catalog.OrderRelevance, catalog.DurationMedium, limit)
		return nil
	})
	g.Go(func() error {
		dateIDs, dateErr = s.catalog.SearchByText(ctx, query, catalog.OrderDate, catalog.DurationMedium, DateQueryLimit)
		return nil
	})
	_ = g.Wait()

	if relevanceErr != nil && dateErr != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.logger.Error("failed to search", "query", query, "relevanceError", relevanceErr, "dateError", dateErr)
		return nil, fmt.Errorf("%w: both search queries failed: %v", domain.ErrCatalogUnavailable, relevanceErr)
	}
	if relevanceErr != nil {
		s.logger.Warn("relevance query failed", "query", query, "error", relevanceErr)
	}
	if dateErr != nil {
		s.logger.Warn("date query failed", "query", query, "error", dateErr)
	}

	order := MergeIDs(relevanceIDs, dateIDs)
	if len(order) == 0 {
		return []domain.Video{}, nil
	}

	videos, err := s.fetchDetails(ctx, order)
	if err != nil {
		return nil, err
	}

	Rank(videos, order, s.now())
	s.logger.Debug("search complete", "query", query, "ids", len(order), "results", len(videos))
	return videos, nil
}

// RelatedTo returns videos related to videoID. When the related query fails it
// searches the first words of fallbackTitle instead; with no title it returns
// an empty list. It only returns an error when ctx is done.
func (s *Service) RelatedTo(ctx context.Context, videoID, fallbackTitle string, limit int) ([]domain.Video, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	ids, err := s.catalog.SearchRelated(ctx, videoID, limit)
	if err == nil {
		if len(ids) == 0 {
			return []domain.Video{}, nil
		}
		var videos []domain.Video
		if videos, err = s.fetchDetails(ctx, ids); err == nil {
			return videos, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	words := strings.Fields(fallbackTitle)
	if len(words) > fallbackQueryWords {
		words = words[:fallbackQueryWords]
	}
	if len(words) == 0 {
		s.logger.Warn("related lookup failed", "videoID", videoID, "error", err)
		return []domain.Video{}, nil
	}

	query := strings.Join(words, " ")
	s.logger.Warn("related lookup failed, using title search", "videoID", videoID, "query", query, "error", err)

	videos, err := s.Search(ctx, query, limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("related fallback search failed", "videoID", videoID, "error", err)
		return []domain.Video{}, nil
	}
	return videos, nil
}

// Trending returns the most popular videos in the configured region in catalog order
func (s *Service) Trending(ctx context.Context, limit int) ([]domain.Video, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	items, err := s.catalog.FetchTrending(ctx, s.region, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending: %w", err)
	}
	return dedupe(catalog.NormalizeAll(items)), nil
}

// Lookup fetches the full record of a single video
func (s *Service) Lookup(ctx context.Context, id string) (domain.Video, error) {
	items, err := s.catalog.FetchDetails(ctx, []string{id})
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to look up video %s: %w", id, err)
	}
	for _, item := range items {
		if string(item.ID) == id {
			return catalog.Normalize(item), nil
		}
	}
	return domain.Video{}, fmt.Errorf("%w: %s", domain.ErrVideoNotFound, id)
}

// fetchDetails looks up ids in concurrent batches. Failed batches are dropped;
// when every batch fails the lookup fails.
func (s *Service) fetchDetails(ctx context.Context, ids []string) ([]domain.Video, error) {
	batches := chunk(ids, catalog.MaxDetailBatch)
	results := make([][]catalog.VideoResource, len(batches))
	errs := make([]error, len(batches))

	var g errgroup.Group
	for i, batch := range batches {
		g.Go(func() error {
			results[i], errs[i] = s.catalog.FetchDetails(ctx, batch)
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	var firstErr error
	var videos []domain.Video
	for i := range batches {
		if errs[i] != nil {
			failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
			s.logger.Warn("detail batch failed", "batch", i, "size", len(batches[i]), "error", errs[i])
			continue
		}
		videos = append(videos, catalog.NormalizeAll(results[i])...)
	}

	if failed == len(batches) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: all detail lookups failed: %v", domain.ErrCatalogUnavailable, firstErr)
	}
	return dedupe(videos), nil
}

// MergeIDs concatenates id batches keeping first-seen order and dropping repeats
func MergeIDs(batches ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, batch := range batches {
		for _, id := range batch {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}

// Rank orders videos by their position in order, moving videos published
// within RecencyWindow of now up by RecencyBoost positions. Videos absent from
// order sort after all others. The sort is stable.
func Rank(videos []domain.Video, order []string, now time.Time) {
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	score := func(v domain.Video) int {
		rank, ok := position[v.ID]
		if !ok {
			rank = len(order) + RecencyBoost
		}
		if isRecent(v, now) {
			rank -= RecencyBoost
		}
		return rank
	}

	scores := make(map[string]int, len(videos))
	for _, v := range videos {
		scores[v.ID] = score(v)
	}

	sort.SliceStable(videos, func(i, j int) bool {
		return scores[videos[i].ID] < scores[videos[j].ID]
	})
}

func isRecent(v domain.Video, now time.Time) bool {
	return !v.PublishedAt.IsZero() && now.Sub(v.PublishedAt) < RecencyWindow
}

func chunk(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

func dedupe(videos []domain.Video) []domain.Video {
	seen := make(map[string]bool, len(videos))
	out := make([]domain.Video, 0, len(videos))
	for _, v := range videos {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}
