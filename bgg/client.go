// Package bgg is the adapter for the external game-metadata API (the
// BoardGameGeek XML API2). It owns the wire format and the HTTP error
// mapping; callers see plain structs and the shared error taxonomy.
package bgg

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ken-allen-3/boardgameborrow/errors"
)

const defaultBaseURL = "https://boardgamegeek.com/xmlapi2"

// Client is the HTTP wrapper around the metadata API. Request timeouts are
// owned by the injected *http.Client.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
	maxRetries   int
	initialDelay time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Tests point this at a local server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetries configures how many times a throttled or failed request is
// retried, and the initial backoff delay.
func WithRetries(max int, initialDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.initialDelay = initialDelay
	}
}

// NewClient creates a metadata API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       slog.Default(),
		maxRetries:   2,
		initialDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Thing fetches one game record by id, with statistics. Returns
// errors.ErrNotFound when the API has no such id.
func (c *Client) Thing(ctx context.Context, id string) (Thing, error) {
	body, err := c.get(ctx, "thing", url.Values{
		"id":    {id},
		"stats": {"1"},
	})
	if err != nil {
		return Thing{}, errors.Wrap("Thing", id, err)
	}

	var envelope thingEnvelope
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return Thing{}, errors.Wrap("Thing", id, fmt.Errorf("%w: %v", errors.ErrParse, err))
	}
	if len(envelope.Items) == 0 {
		return Thing{}, errors.Wrap("Thing", id, errors.ErrNotFound)
	}

	return fromThingItem(envelope.Items[0]), nil
}

// Search runs a free-text search. With exact set, only exact title matches
// are returned.
func (c *Client) Search(ctx context.Context, query string, exact bool) ([]SearchResult, error) {
	params := url.Values{
		"query": {query},
		"type":  {"boardgame"},
	}
	if exact {
		params.Set("exact", "1")
	}

	body, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, errors.Wrap("Search", query, err)
	}

	var envelope searchEnvelope
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap("Search", query, fmt.Errorf("%w: %v", errors.ErrParse, err))
	}

	results := make([]SearchResult, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		results = append(results, SearchResult{
			ID:            item.ID,
			Name:          item.Name.Value,
			YearPublished: atoi(item.YearPublished.Value),
		})
	}
	return results, nil
}

// get performs a GET request with bounded retry on 429/5xx responses,
// honoring Retry-After when present. Callers that layer their own retry
// should configure zero retries here so the budgets do not stack.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.initialDelay << (attempt - 1)
			if ra := retryAfter(lastErr); ra > 0 {
				wait = ra
			}
			c.logger.Debug("retrying upstream request",
				"endpoint", endpoint, "attempt", attempt, "wait", wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.doOnce(ctx, requestURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// httpError carries the Retry-After hint through the retry loop.
type httpError struct {
	err        error
	retryAfter time.Duration
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func retryAfter(err error) time.Duration {
	if he, ok := err.(*httpError); ok {
		return he.retryAfter
	}
	return 0
}

func (c *Client) doOnce(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &httpError{
			err:        errors.ErrRateLimited,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, &httpError{err: errors.ErrServiceUnavailable}
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", errors.ErrSearch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errors.ErrServiceUnavailable, err)
	}
	return body, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func fromThingItem(item thingItem) Thing {
	thing := Thing{
		ID:            item.ID,
		Name:          primaryName(item.Names),
		YearPublished: atoi(item.YearPublished.Value),
		Description:   strings.TrimSpace(item.Description),
		Image:         item.Image,
		Thumbnail:     item.Thumbnail,
		MinPlayers:    atoi(item.MinPlayers.Value),
		MaxPlayers:    atoi(item.MaxPlayers.Value),
		MinPlaytime:   atoi(item.MinPlaytime.Value),
		MaxPlaytime:   atoi(item.MaxPlaytime.Value),
		AverageRating: atof(item.Statistics.Ratings.Average.Value),
	}
	for _, row := range item.Statistics.Ratings.Ranks {
		thing.Ranks = append(thing.Ranks, Rank{
			Type:  row.Type,
			Name:  row.Name,
			Value: atoi(row.Value), // "Not Ranked" parses to 0
		})
	}
	return thing
}

func primaryName(names []thingName) string {
	for _, n := range names {
		if n.Type == "primary" {
			return n.Value
		}
	}
	if len(names) > 0 {
		return names[0].Value
	}
	return ""
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
