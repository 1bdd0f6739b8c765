package rankings

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ken-allen-3/boardgameborrow/errors"
	"github.com/ken-allen-3/boardgameborrow/game"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "rankings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMonthKey(t *testing.T) {
	ts := time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "2025-01", MonthKey(ts))

	// Local times normalize to UTC before partitioning.
	loc := time.FixedZone("UTC+10", 10*3600)
	require.Equal(t, "2025-02", MonthKey(time.Date(2025, 2, 1, 5, 0, 0, 0, loc)))
}

func TestRankingsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, found, err := s.Rankings(ctx, game.CategoryStrategy, "2025-01")
	require.NoError(t, err)
	require.False(t, found)

	one := 1
	doc := Document{
		Category: game.CategoryStrategy,
		Month:    "2025-01",
		Games: []game.Data{
			{ID: "174430", Name: "Gloomhaven", OverallRank: 3,
				CategoryRanks: map[game.Category]*int{game.CategoryStrategy: &one}},
		},
		LastUpdated: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Source:      SourceAPI,
		TotalGames:  1,
		RefreshedAt: "2025-01-01T00:00:00Z",
		RunID:       "run-1",
	}
	require.NoError(t, s.PutRankings(ctx, doc))

	got, found, err := s.Rankings(ctx, game.CategoryStrategy, "2025-01")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, doc.Month, got.Month)
	require.Equal(t, SourceAPI, got.Source)
	require.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Games, 1)
	require.Equal(t, "Gloomhaven", got.Games[0].Name)
	require.NotNil(t, got.Games[0].CategoryRank(game.CategoryStrategy))
	require.True(t, got.LastUpdated.Equal(doc.LastUpdated))
}

func TestPutRankingsOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := Document{
		Category:    game.CategoryParty,
		Month:       "2025-01",
		Games:       []game.Data{{ID: "1"}, {ID: "2"}},
		Source:      SourceAPI,
		TotalGames:  2,
		RefreshedAt: "2025-01-01T00:00:00Z",
	}
	require.NoError(t, s.PutRankings(ctx, first))

	second := first
	second.Games = []game.Data{{ID: "3"}}
	second.TotalGames = 1
	second.RefreshedAt = "2025-01-15T00:00:00Z"
	require.NoError(t, s.PutRankings(ctx, second))

	got, found, err := s.Rankings(ctx, game.CategoryParty, "2025-01")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got.Games, 1, "second run's content, not an accumulation")
	require.Equal(t, "3", got.Games[0].ID)
	require.Equal(t, "2025-01-15T00:00:00Z", got.RefreshedAt)
}

func TestRankingsPartitionedByCategoryAndMonth(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	put := func(cat game.Category, month, id string) {
		require.NoError(t, s.PutRankings(ctx, Document{
			Category: cat, Month: month, Games: []game.Data{{ID: id}},
			Source: SourceAPI, TotalGames: 1, RefreshedAt: "x",
		}))
	}
	put(game.CategoryStrategy, "2025-01", "a")
	put(game.CategoryStrategy, "2025-02", "b")
	put(game.CategoryWargames, "2025-01", "c")

	got, found, err := s.Rankings(ctx, game.CategoryStrategy, "2025-02")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "b", got.Games[0].ID)
}

func TestPutRankingsRejectsInvalidCategory(t *testing.T) {
	s := openTestStore(t)
	err := s.PutRankings(context.Background(), Document{Category: "rpg", Month: "2025-01"})
	require.ErrorIs(t, err, errors.ErrInvalidCategory)
}

func TestUsageCounters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, found, err := s.Usage(ctx, "42")
	require.NoError(t, err)
	require.False(t, found)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.IncrementUsage(ctx, "42", SourceAPI))
	}

	rec, found, err := s.Usage(ctx, "42")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 3, rec.UsageCount)
	require.Equal(t, SourceAPI, rec.Source, "provenance set on first access")
	require.False(t, rec.LastAccessed.IsZero())
}

func TestHighUsageIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bump := func(id string, times int) {
		for i := 0; i < times; i++ {
			require.NoError(t, s.IncrementUsage(ctx, id, SourceDetection))
		}
	}
	bump("42", 15)
	bump("43", 10)
	bump("44", 9)

	ids, err := s.HighUsageIDs(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"42": true, "43": true}, ids)

	none, err := s.HighUsageIDs(ctx, 100)
	require.NoError(t, err)
	require.Empty(t, none)
}
