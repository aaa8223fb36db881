package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/playloop/internal/domain"
)

const (
	// DefaultBaseURL is the YouTube Data API v3 root
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// MaxDetailBatch is the most ids the videos endpoint accepts per request
	MaxDetailBatch = 50

	// CommentPageSize is the number of comment threads per page
	CommentPageSize = 20

	defaultTimeout = 15 * time.Second
	userAgent      = "PlayLoop/1.0"
	detailParts    = "snippet,statistics,contentDetails"
)

// SearchOrder selects the ranking of a text search
type SearchOrder string

const (
	OrderRelevance SearchOrder = "relevance"
	OrderDate      SearchOrder = "date"
)

// DurationBand filters search results by length. DurationAny sends no filter.
type DurationBand string

const (
	DurationAny    DurationBand = ""
	DurationShort  DurationBand = "short"
	DurationMedium DurationBand = "medium"
	DurationLong   DurationBand = "long"
)

// APIError is a non-2xx catalog response. It matches domain.ErrCatalogUnavailable.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog request failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return domain.ErrCatalogUnavailable
}

// Client is an API-key authenticated client for the catalog
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new catalog client. An empty baseURL selects DefaultBaseURL
// and a zero timeout selects the default.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SetAPIKey updates the key sent with every request
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// doRequest performs an authenticated GET against an endpoint
func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("catalog request", "endpoint", endpoint, "params", redact(query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("catalog request failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrCatalogUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope errorResponse
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Message = envelope.Error.Message
		}
		c.logger.Error("catalog request error", "endpoint", endpoint, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	return body, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	body, err := c.doRequest(ctx, endpoint, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("catalog JSON parse error", "endpoint", endpoint, "error", err, "bodyLen", len(body))
		return fmt.Errorf("%w: failed to parse response: %v", domain.ErrCatalogUnavailable, err)
	}
	return nil
}

// FetchTrending returns the most popular videos in a region, in catalog order
func (c *Client) FetchTrending(ctx context.Context, region string, limit int) ([]VideoResource, error) {
	query := url.Values{}
	query.Set("part", detailParts)
	query.Set("chart", "mostPopular")
	query.Set("regionCode", region)
	query.Set("maxResults", strconv.Itoa(limit))

	var resp ListResponse
	if err := c.getJSON(ctx, "videos", query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// SearchByText returns the ids of videos matching a free-text query
func (c *Client) SearchByText(ctx context.Context, text string, order SearchOrder, band DurationBand, limit int) ([]string, error) {
	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("type", "video")
	query.Set("q", text)
	query.Set("maxResults", strconv.Itoa(limit))
	query.Set("order", string(order))
	query.Set("safeSearch", "none")
	if band != DurationAny {
		query.Set("videoDuration", string(band))
	}

	return c.searchIDs(ctx, query)
}

// SearchRelated returns the ids of videos related to videoID
func (c *Client) SearchRelated(ctx context.Context, videoID string, limit int) ([]string, error) {
	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("type", "video")
	query.Set("relatedToVideoId", videoID)
	query.Set("maxResults", strconv.Itoa(limit))

	return c.searchIDs(ctx, query)
}

func (c *Client) searchIDs(ctx context.Context, query url.Values) ([]string, error) {
	var resp ListResponse
	if err := c.getJSON(ctx, "search", query, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID != "" {
			ids = append(ids, string(item.ID))
		}
	}
	return ids, nil
}

// FetchDetails returns full records for up to MaxDetailBatch ids
func (c *Client) FetchDetails(ctx context.Context, ids []string) ([]VideoResource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxDetailBatch {
		return nil, fmt.Errorf("at most %d ids per detail request, got %d", MaxDetailBatch, len(ids))
	}

	query := url.Values{}
	query.Set("part", detailParts)
	query.Set("id", strings.Join(ids, ","))

	var resp ListResponse
	if err := c.getJSON(ctx, "videos", query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// FetchComments returns one page of top-level comments. An empty pageToken
// requests the first page.
func (c *Client) FetchComments(ctx context.Context, videoID string, order domain.CommentOrder, pageToken string) (domain.CommentPage, error) {
	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("videoId", videoID)
	query.Set("maxResults", strconv.Itoa(CommentPageSize))
	query.Set("order", string(order))
	query.Set("textFormat", "plainText")
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var resp CommentThreadResponse
	if err := c.getJSON(ctx, "commentThreads", query, &resp); err != nil {
		return domain.CommentPage{}, err
	}

	page := domain.CommentPage{
		Comments:      make([]domain.Comment, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		page.Comments = append(page.Comments, mapComment(item))
	}
	return page, nil
}

// IsAuthError reports whether err is a catalog rejection of the API key
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// redact drops the key from logged query parameters
func redact(query url.Values) string {
	clean := url.Values{}
	for k, v := range query {
		if k == "key" {
			continue
		}
		clean[k] = v
	}
	return clean.Encode()
}
