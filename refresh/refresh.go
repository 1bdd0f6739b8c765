// Package refresh implements the monthly rankings rebuild. The job runs on
// the first of each month, rebuilds every category listing through the
// metadata service, and persists only the games that are not already kept
// alive by user demand.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ken-allen-3/boardgameborrow/errors"
	"github.com/ken-allen-3/boardgameborrow/game"
	"github.com/ken-allen-3/boardgameborrow/rankings"
)

// Schedule is the cron expression the job runs under: midnight on the
// first of every month.
const Schedule = "0 0 1 * *"

// DefaultUsageThreshold is the access count at which a game's cached data
// is considered demand-kept and excluded from the bulk rewrite.
const DefaultUsageThreshold = 10

// Rankings is the slice of the metadata service the job drives.
type Rankings interface {
	CategoryRankings(ctx context.Context, category game.Category) ([]game.Data, error)
}

// Store is the durable store the job reads usage from and writes
// documents to.
type Store interface {
	HighUsageIDs(ctx context.Context, threshold int) (map[string]bool, error)
	PutRankings(ctx context.Context, doc rankings.Document) error
}

// Job rebuilds the monthly rankings documents.
type Job struct {
	service   Rankings
	store     Store
	threshold int
	logger    *slog.Logger
	now       func() time.Time
	newRunID  func() string
}

// Option configures a Job.
type Option func(*Job)

// WithThreshold overrides the high-usage threshold.
func WithThreshold(n int) Option {
	return func(j *Job) { j.threshold = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Job) { j.logger = logger }
}

// WithClock sets the time source. Tests inject a fake.
func WithClock(now func() time.Time) Option {
	return func(j *Job) { j.now = now }
}

// WithRunID overrides run-id generation. Tests inject a fixed id.
func WithRunID(fn func() string) Option {
	return func(j *Job) { j.newRunID = fn }
}

// NewJob creates a refresh job over service and store.
func NewJob(service Rankings, store Store, opts ...Option) *Job {
	j := &Job{
		service:   service,
		store:     store,
		threshold: DefaultUsageThreshold,
		logger:    slog.Default(),
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// CategoryResult records what one category's rebuild produced.
type CategoryResult struct {
	TotalGames     int
	PreservedGames int
	Err            error
}

// Report summarizes one run. A category that failed carries its error;
// the other categories are unaffected.
type Report struct {
	RunID      string
	Month      string
	Categories map[game.Category]CategoryResult
}

// Failed reports whether any category rebuild failed.
func (r Report) Failed() bool {
	for _, result := range r.Categories {
		if result.Err != nil {
			return true
		}
	}
	return false
}

// Run executes one refresh. The usage snapshot is read once up front; if
// that read fails the whole run aborts, because without it the job cannot
// tell which games user demand is keeping alive.
func (j *Job) Run(ctx context.Context) (Report, error) {
	runID := j.newRunID()
	month := rankings.MonthKey(j.now())
	logger := j.logger.With("run", runID, "month", month)
	logger.Info("rankings refresh starting", "threshold", j.threshold)

	highUsage, err := j.store.HighUsageIDs(ctx, j.threshold)
	if err != nil {
		return Report{}, errors.Wrap("refresh.Run", month, err)
	}

	report := Report{
		RunID:      runID,
		Month:      month,
		Categories: make(map[game.Category]CategoryResult, len(game.Categories())),
	}

	for _, category := range game.Categories() {
		result := j.refreshCategory(ctx, category, month, runID, highUsage)
		report.Categories[category] = result
		if result.Err != nil {
			logger.Error("category refresh failed",
				"category", category, "error", result.Err)
			continue
		}
		logger.Info("category refreshed",
			"category", category,
			"games", result.TotalGames,
			"preserved", result.PreservedGames)
	}

	logger.Info("rankings refresh finished", "failed", report.Failed())
	return report, nil
}

// refreshCategory rebuilds one category document. Games in the high-usage
// set are left out of the written document: their cached records stay
// authoritative until demand tails off.
func (j *Job) refreshCategory(ctx context.Context, category game.Category, month, runID string, highUsage map[string]bool) CategoryResult {
	games, err := j.service.CategoryRankings(ctx, category)
	if err != nil {
		return CategoryResult{Err: err}
	}

	fresh := make([]game.Data, 0, len(games))
	preserved := 0
	for _, g := range games {
		if highUsage[g.ID] {
			preserved++
			continue
		}
		fresh = append(fresh, g)
	}

	now := j.now()
	doc := rankings.Document{
		Category:       category,
		Month:          month,
		Games:          fresh,
		LastUpdated:    now,
		Source:         rankings.SourceAPI,
		TotalGames:     len(fresh),
		PreservedGames: preserved,
		RefreshedAt:    now.UTC().Format(time.RFC3339),
		RunID:          runID,
	}
	if err := j.store.PutRankings(ctx, doc); err != nil {
		return CategoryResult{Err: err}
	}
	return CategoryResult{TotalGames: len(fresh), PreservedGames: preserved}
}
