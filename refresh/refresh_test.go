package refresh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ken-allen-3/boardgameborrow/errors"
	"github.com/ken-allen-3/boardgameborrow/game"
	"github.com/ken-allen-3/boardgameborrow/rankings"
)

type fakeService struct {
	games map[game.Category][]game.Data
	errs  map[game.Category]error
	calls []game.Category
}

func (f *fakeService) CategoryRankings(ctx context.Context, category game.Category) ([]game.Data, error) {
	f.calls = append(f.calls, category)
	if err := f.errs[category]; err != nil {
		return nil, err
	}
	return f.games[category], nil
}

type fakeStore struct {
	highUsage   map[string]bool
	usageErr    error
	putErrs     map[game.Category]error
	docs        map[game.Category]rankings.Document
	thresholds  []int
	usageCalled int
}

func (f *fakeStore) HighUsageIDs(ctx context.Context, threshold int) (map[string]bool, error) {
	f.usageCalled++
	f.thresholds = append(f.thresholds, threshold)
	if f.usageErr != nil {
		return nil, f.usageErr
	}
	return f.highUsage, nil
}

func (f *fakeStore) PutRankings(ctx context.Context, doc rankings.Document) error {
	if err := f.putErrs[doc.Category]; err != nil {
		return err
	}
	if f.docs == nil {
		f.docs = make(map[game.Category]rankings.Document)
	}
	f.docs[doc.Category] = doc
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRunPartitionsHighUsageGames(t *testing.T) {
	service := &fakeService{games: map[game.Category][]game.Data{
		game.CategoryStrategy: {{ID: "42"}, {ID: "43"}, {ID: "44"}},
	}}
	store := &fakeStore{highUsage: map[string]bool{"42": true}}
	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	job := NewJob(service, store,
		WithClock(fixedClock(now)),
		WithRunID(func() string { return "run-1" }),
	)
	report, err := job.Run(context.Background())
	require.NoError(t, err)
	require.False(t, report.Failed())
	require.Equal(t, "run-1", report.RunID)
	require.Equal(t, "2026-04", report.Month)

	doc := store.docs[game.CategoryStrategy]
	require.Equal(t, []game.Data{{ID: "43"}, {ID: "44"}}, doc.Games)
	require.Equal(t, 2, doc.TotalGames)
	require.Equal(t, 1, doc.PreservedGames)
	require.Equal(t, "run-1", doc.RunID)
	require.Equal(t, rankings.SourceAPI, doc.Source)
	require.Equal(t, "2026-04-01T00:00:00Z", doc.RefreshedAt)

	result := report.Categories[game.CategoryStrategy]
	require.Equal(t, 2, result.TotalGames)
	require.Equal(t, 1, result.PreservedGames)
}

func TestRunCoversEveryCategory(t *testing.T) {
	service := &fakeService{}
	store := &fakeStore{}
	job := NewJob(service, store, WithRunID(func() string { return "run-2" }))

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, game.Categories(), service.calls)
	require.Len(t, report.Categories, len(game.Categories()))
	require.Equal(t, 1, store.usageCalled, "usage snapshot is read once per run")
}

func TestRunAbortsWhenUsageSnapshotFails(t *testing.T) {
	service := &fakeService{}
	store := &fakeStore{usageErr: errors.Wrap("HighUsageIDs", "", errors.ErrStorage)}
	job := NewJob(service, store)

	_, err := job.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.IsStorage(err))
	require.Empty(t, service.calls, "no category may be rebuilt without the usage snapshot")
}

func TestRunContinuesPastCategoryFailures(t *testing.T) {
	service := &fakeService{
		games: map[game.Category][]game.Data{
			game.CategoryParty: {{ID: "7"}},
		},
		errs: map[game.Category]error{
			game.CategoryStrategy: errors.Wrap("Search", "strategy", errors.ErrRateLimited),
		},
	}
	store := &fakeStore{}
	job := NewJob(service, store)

	report, err := job.Run(context.Background())
	require.NoError(t, err, "a single category failure must not fail the run")
	require.True(t, report.Failed())
	require.Error(t, report.Categories[game.CategoryStrategy].Err)
	require.NotContains(t, store.docs, game.CategoryStrategy)
	require.Contains(t, store.docs, game.CategoryParty)
}

func TestRunUsesConfiguredThreshold(t *testing.T) {
	store := &fakeStore{}
	job := NewJob(&fakeService{}, store, WithThreshold(25))

	_, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{25}, store.thresholds)
}

func TestRunIsIdempotentForTheMonth(t *testing.T) {
	service := &fakeService{games: map[game.Category][]game.Data{
		game.CategoryFamily: {{ID: "1"}, {ID: "2"}},
	}}
	store := &fakeStore{}
	now := time.Date(2026, time.April, 1, 3, 0, 0, 0, time.UTC)
	job := NewJob(service, store, WithClock(fixedClock(now)))

	_, err := job.Run(context.Background())
	require.NoError(t, err)
	first := store.docs[game.CategoryFamily]

	_, err = job.Run(context.Background())
	require.NoError(t, err)
	second := store.docs[game.CategoryFamily]

	require.Equal(t, first.Month, second.Month)
	require.Equal(t, first.Games, second.Games)
	require.Equal(t, first.TotalGames, second.TotalGames)
}
