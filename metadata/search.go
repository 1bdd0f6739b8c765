package metadata

import (
	"context"
	"regexp"
	"strings"
	"time"

	bgb "github.com/ken-allen-3/boardgameborrow"
	"github.com/ken-allen-3/boardgameborrow/errors"
	"github.com/ken-allen-3/boardgameborrow/game"
)

// pageSize is the fixed number of results per search page.
const pageSize = 10

// maxSearchResults caps how many matches a single search resolves.
const maxSearchResults = 30

// queryPattern admits letters, digits, whitespace and hyphens. Anything
// else (punctuation, markup) yields an empty result set without touching
// the network.
var queryPattern = regexp.MustCompile(`^[a-zA-Z0-9\s-]+$`)

// SearchPage is one page of search results.
type SearchPage struct {
	Items   []game.Data `json:"items"`
	HasMore bool        `json:"hasMore"`
}

// SearchGames searches for games by name and returns the requested
// 1-based page. Queries shorter than two characters or containing
// disallowed characters return an empty page, not an error.
func (s *Service) SearchGames(ctx context.Context, query string, page int) (SearchPage, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 || !queryPattern.MatchString(query) {
		return SearchPage{Items: []game.Data{}}, nil
	}
	if page < 1 {
		page = 1
	}

	var (
		results []game.Data
		err     error
	)
	for attempt := 0; ; attempt++ {
		results, err = s.searchOnce(ctx, query)
		if err == nil || !errors.IsRetryable(err) || attempt == s.retryAttempts {
			break
		}
		delay := s.retryDelay << attempt
		s.logger.Info("search throttled, retrying",
			"query", query, "attempt", attempt+1, "delay", delay)
		select {
		case <-ctx.Done():
			return SearchPage{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return SearchPage{}, err
	}

	game.SortForSearch(results, query)

	start := (page - 1) * pageSize
	if start >= len(results) {
		return SearchPage{Items: []game.Data{}}, nil
	}
	end := start + pageSize
	if end > len(results) {
		end = len(results)
	}
	return SearchPage{
		Items:   results[start:end],
		HasMore: end < len(results),
	}, nil
}

// searchOnce runs one exact-then-fuzzy search pass and resolves the hits to
// full records.
func (s *Service) searchOnce(ctx context.Context, query string) ([]game.Data, error) {
	hits, err := s.upstream.Search(ctx, query, true)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		// Back-to-back searches get throttled upstream; wait before the
		// fuzzy pass.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.fuzzyPause):
		}
		hits, err = s.upstream.Search(ctx, query, false)
		if err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, maxSearchResults)
	for _, hit := range hits {
		if _, known := s.notFound.Get(hit.ID); known {
			continue
		}
		ids = append(ids, hit.ID)
		if len(ids) == maxSearchResults {
			break
		}
	}

	results, err := bgb.ProcessBatch(ctx, ids, s.resolve, s.searchBatch)
	if err != nil {
		return nil, errors.Wrap("SearchGames", query, err)
	}
	return results, nil
}
