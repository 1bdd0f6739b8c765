// Package metadata orchestrates game-metadata lookups against the external
// API: single-game resolution, free-text search, the curated popular list,
// and category rankings. It consults the persistent caches first and uses
// the rate-limited batch fetcher for fan-out.
package metadata

import (
	"context"
	"log/slog"
	"time"

	bgb "github.com/ken-allen-3/boardgameborrow"
	"github.com/ken-allen-3/boardgameborrow/bgg"
	"github.com/ken-allen-3/boardgameborrow/errors"
	"github.com/ken-allen-3/boardgameborrow/game"
	"github.com/ken-allen-3/boardgameborrow/rankings"
	"github.com/ken-allen-3/boardgameborrow/telemetry"
)

// Cache names, shared with the telemetry dashboard.
const (
	detailsCacheName  = "game-details"
	notFoundCacheName = "game-not-found"
	popularCacheName  = "popular-games"
)

// cacheVersion tags cached payloads with the schema in effect. Bumping it
// invalidates every previously cached entry on next read.
const cacheVersion = "1.0"

const popularCacheKey = "all"

// Upstream is the slice of the metadata API the service consumes.
type Upstream interface {
	Thing(ctx context.Context, id string) (bgg.Thing, error)
	Search(ctx context.Context, query string, exact bool) ([]bgg.SearchResult, error)
}

// RankingsStore is the durable shared store for category-ranking documents.
type RankingsStore interface {
	Rankings(ctx context.Context, category game.Category, month string) (rankings.Document, bool, error)
	PutRankings(ctx context.Context, doc rankings.Document) error
}

// UsageRecorder accounts game accesses. Implemented by rankings.Store.
type UsageRecorder interface {
	IncrementUsage(ctx context.Context, gameID, source string) error
}

// Service resolves game metadata through the caches and the upstream API.
type Service struct {
	upstream Upstream
	details  *bgb.Cache[game.Data]
	notFound *bgb.Cache[bool]
	popular  *bgb.Cache[[]game.Data]
	ranks    RankingsStore
	usage    UsageRecorder
	logger   *slog.Logger
	now      func() time.Time

	searchBatch   bgb.BatchConfig
	rankingBatch  bgb.BatchConfig
	fuzzyPause    time.Duration
	retryAttempts int
	retryDelay    time.Duration
	rankingsTTL   time.Duration
}

type serviceConfig struct {
	cacheStore   bgb.Blob
	sink         telemetry.Sink
	ranks        RankingsStore
	usage        UsageRecorder
	logger       *slog.Logger
	now          func() time.Time
	searchBatch  bgb.BatchConfig
	rankingBatch bgb.BatchConfig
	fuzzyPause   time.Duration
	retries      int
	retryDelay   time.Duration
	rankingsTTL  time.Duration
	detailsTTL   time.Duration
	maxEntries   int
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

// WithCacheStore binds the persistent caches to a durable blob store.
// Without it the caches live only in memory.
func WithCacheStore(blob bgb.Blob) ServiceOption {
	return func(c *serviceConfig) { c.cacheStore = blob }
}

// WithTelemetrySink routes cache events to sink.
func WithTelemetrySink(sink telemetry.Sink) ServiceOption {
	return func(c *serviceConfig) { c.sink = sink }
}

// WithRankingsStore binds the durable category-rankings store.
func WithRankingsStore(store RankingsStore) ServiceOption {
	return func(c *serviceConfig) { c.ranks = store }
}

// WithUsageRecorder binds the usage-counter store. Every detail-cache hit
// bumps the counter once.
func WithUsageRecorder(usage UsageRecorder) ServiceOption {
	return func(c *serviceConfig) { c.usage = usage }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithClock sets the time source. Tests inject a fake.
func WithClock(now func() time.Time) ServiceOption {
	return func(c *serviceConfig) { c.now = now }
}

// WithSearchBatch sets the batch shape for interactive detail fan-out.
func WithSearchBatch(cfg bgb.BatchConfig) ServiceOption {
	return func(c *serviceConfig) { c.searchBatch = cfg }
}

// WithRankingBatch sets the batch shape for category-listing fan-out.
func WithRankingBatch(cfg bgb.BatchConfig) ServiceOption {
	return func(c *serviceConfig) { c.rankingBatch = cfg }
}

// WithFuzzyPause sets the wait between a failed exact search and the fuzzy
// retry.
func WithFuzzyPause(d time.Duration) ServiceOption {
	return func(c *serviceConfig) { c.fuzzyPause = d }
}

// WithSearchRetry sets the automatic retry budget for throttled searches.
func WithSearchRetry(attempts int, initialDelay time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		c.retries = attempts
		c.retryDelay = initialDelay
	}
}

// WithRankingsTTL sets how long a stored rankings document stays fresh.
func WithRankingsTTL(d time.Duration) ServiceOption {
	return func(c *serviceConfig) { c.rankingsTTL = d }
}

// NewService creates a metadata service over upstream.
func NewService(upstream Upstream, opts ...ServiceOption) *Service {
	cfg := &serviceConfig{
		sink:         telemetry.Nop{},
		logger:       slog.Default(),
		now:          time.Now,
		searchBatch:  bgb.BatchConfig{Size: 5, Delay: time.Second},
		rankingBatch: bgb.BatchConfig{Size: 10, Delay: 500 * time.Millisecond},
		fuzzyPause:   time.Second,
		retries:      2,
		retryDelay:   500 * time.Millisecond,
		rankingsTTL:  30 * 24 * time.Hour,
		detailsTTL:   24 * time.Hour,
		maxEntries:   100,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Service{
		upstream:      upstream,
		ranks:         cfg.ranks,
		usage:         cfg.usage,
		logger:        cfg.logger,
		now:           cfg.now,
		searchBatch:   cfg.searchBatch,
		rankingBatch:  cfg.rankingBatch,
		fuzzyPause:    cfg.fuzzyPause,
		retryAttempts: cfg.retries,
		retryDelay:    cfg.retryDelay,
		rankingsTTL:   cfg.rankingsTTL,
	}

	detailOpts := []bgb.Option[game.Data]{
		bgb.WithVersion[game.Data](cacheVersion),
		bgb.WithTTL[game.Data](cfg.detailsTTL),
		bgb.WithMaxSize[game.Data](cfg.maxEntries),
		bgb.WithSink[game.Data](cfg.sink),
		bgb.WithLogger[game.Data](cfg.logger),
		bgb.WithClock[game.Data](cfg.now),
	}
	if cfg.cacheStore != nil {
		detailOpts = append(detailOpts, bgb.WithStore[game.Data](cfg.cacheStore))
	}
	if cfg.usage != nil {
		detailOpts = append(detailOpts, bgb.WithOnHit[game.Data](s.recordUsage))
	}
	s.details = bgb.New(detailsCacheName, detailOpts...)

	nfOpts := []bgb.Option[bool]{
		bgb.WithVersion[bool](cacheVersion),
		bgb.WithTTL[bool](cfg.detailsTTL),
		bgb.WithMaxSize[bool](cfg.maxEntries * 2),
		bgb.WithSink[bool](cfg.sink),
		bgb.WithLogger[bool](cfg.logger),
		bgb.WithClock[bool](cfg.now),
	}
	if cfg.cacheStore != nil {
		nfOpts = append(nfOpts, bgb.WithStore[bool](cfg.cacheStore))
	}
	s.notFound = bgb.New(notFoundCacheName, nfOpts...)

	popOpts := []bgb.Option[[]game.Data]{
		bgb.WithVersion[[]game.Data](cacheVersion),
		bgb.WithTTL[[]game.Data](cfg.detailsTTL),
		bgb.WithMaxSize[[]game.Data](1),
		bgb.WithSink[[]game.Data](cfg.sink),
		bgb.WithLogger[[]game.Data](cfg.logger),
		bgb.WithClock[[]game.Data](cfg.now),
	}
	if cfg.cacheStore != nil {
		popOpts = append(popOpts, bgb.WithStore[[]game.Data](cfg.cacheStore))
	}
	s.popular = bgb.New(popularCacheName, popOpts...)

	return s
}

// recordUsage bumps the access counter after a detail-cache hit. Usage
// accounting is best effort; failures are logged, never surfaced.
func (s *Service) recordUsage(gameID string) {
	if err := s.usage.IncrementUsage(context.Background(), gameID, rankings.SourceAPI); err != nil {
		s.logger.Warn("usage increment failed", "game", gameID, "error", err)
	}
}

// GameByID resolves one game record. Known-absent ids fail fast with
// errors.ErrNotFound without a network call.
func (s *Service) GameByID(ctx context.Context, id string) (game.Data, error) {
	if _, known := s.notFound.Get(id); known {
		return game.Data{}, errors.Wrap("GameByID", id, errors.ErrNotFound)
	}
	if data, ok := s.details.Get(id); ok {
		return data, nil
	}
	return s.fetch(ctx, id)
}

// fetch resolves id upstream and writes the result back into the caches.
func (s *Service) fetch(ctx context.Context, id string) (game.Data, error) {
	thing, err := s.upstream.Thing(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			// Remember the absence so repeat lookups short-circuit.
			s.notFound.Set(id, true)
		}
		return game.Data{}, err
	}

	data := game.FromThing(thing)
	s.details.Set(id, data)
	return data, nil
}

// resolve is the batch-fetcher processor: cache-aware like GameByID but
// without the usage bump for the short-circuit paths.
func (s *Service) resolve(ctx context.Context, id string) (game.Data, error) {
	if _, known := s.notFound.Get(id); known {
		return game.Data{}, errors.Wrap("resolve", id, errors.ErrNotFound)
	}
	if data, ok := s.details.Get(id); ok {
		return data, nil
	}
	return s.fetch(ctx, id)
}

// PopularGames resolves the curated popular list. The list is always
// refetched live (popularity curation is deliberately kept current); the
// last successfully cached set is served only when the live fetch yields
// nothing.
func (s *Service) PopularGames(ctx context.Context) ([]game.Data, error) {
	results, err := bgb.ProcessBatch(ctx, popularGameIDs(), func(ctx context.Context, id string) (game.Data, error) {
		thing, err := s.upstream.Thing(ctx, id)
		if err != nil {
			s.logger.Debug("popular game fetch failed", "game", id, "error", err)
			return game.Data{}, err
		}
		data := game.FromThing(thing)
		s.details.Set(id, data)
		return data, nil
	}, s.rankingBatch)
	if err != nil {
		return nil, errors.Wrap("PopularGames", "", err)
	}

	if len(results) == 0 {
		if cached, ok := s.popular.Get(popularCacheKey); ok {
			s.logger.Warn("live popular fetch failed, serving cached set")
			return cached, nil
		}
		return nil, errors.Wrap("PopularGames", "", errors.ErrServiceUnavailable)
	}

	game.SortByOverallRank(results)
	s.popular.Set(popularCacheKey, results)
	return results, nil
}

// CategoryRankings returns the ranked game list for category, serving the
// stored month document while it is fresh and rebuilding it from the
// upstream API otherwise.
func (s *Service) CategoryRankings(ctx context.Context, category game.Category) ([]game.Data, error) {
	if !category.Valid() {
		return nil, errors.Wrap("CategoryRankings", string(category), errors.ErrInvalidCategory)
	}

	month := rankings.MonthKey(s.now())
	if s.ranks != nil {
		doc, found, err := s.ranks.Rankings(ctx, category, month)
		if err != nil {
			s.logger.Warn("rankings read failed, falling through to live fetch",
				"category", category, "error", err)
		} else if found && s.now().Sub(doc.LastUpdated) < s.rankingsTTL {
			return doc.Games, nil
		}
	}

	hits, err := s.upstream.Search(ctx, category.SearchQuery(), false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, maxCategoryGames)
	for _, hit := range hits {
		ids = append(ids, hit.ID)
		if len(ids) == maxCategoryGames {
			break
		}
	}

	resolved, err := bgb.ProcessBatch(ctx, ids, s.resolve, s.rankingBatch)
	if err != nil {
		return nil, errors.Wrap("CategoryRankings", string(category), err)
	}

	ranked := resolved[:0]
	for _, data := range resolved {
		if data.CategoryRank(category) != nil {
			ranked = append(ranked, data)
		}
	}
	game.SortByCategoryRank(ranked, category)

	if s.ranks != nil {
		now := s.now()
		doc := rankings.Document{
			Category:    category,
			Month:       month,
			Games:       ranked,
			LastUpdated: now,
			Source:      rankings.SourceAPI,
			TotalGames:  len(ranked),
			RefreshedAt: now.UTC().Format(time.RFC3339),
		}
		if err := s.ranks.PutRankings(ctx, doc); err != nil {
			s.logger.Warn("rankings write failed", "category", category, "error", err)
		}
	}

	return ranked, nil
}

// maxCategoryGames bounds how many matched ids a category listing resolves.
const maxCategoryGames = 50

// ClearCaches drops every cached entry. Used by operational tooling after a
// bad upstream payload.
func (s *Service) ClearCaches() {
	s.details.Clear()
	s.notFound.Clear()
	s.popular.Clear()
}
