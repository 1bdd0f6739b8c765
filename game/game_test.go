package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ken-allen-3/boardgameborrow/bgg"
)

func TestCategoriesAreClosedAndOrdered(t *testing.T) {
	cats := Categories()
	require.Equal(t, []Category{
		CategoryAbstracts, CategoryCGS, CategoryChildrens, CategoryFamily,
		CategoryParty, CategoryStrategy, CategoryThematic, CategoryWargames,
	}, cats)

	for _, c := range cats {
		require.True(t, c.Valid())
		require.NotEmpty(t, c.UpstreamRankName())
		require.NotEmpty(t, c.SearchQuery())

		back, ok := CategoryForRankName(c.UpstreamRankName())
		require.True(t, ok)
		require.Equal(t, c, back)
	}

	require.False(t, Category("rpg").Valid())
	_, ok := CategoryForRankName("boardgame")
	require.False(t, ok, "the overall list is not a category")
}

func TestFromThing(t *testing.T) {
	thing := bgg.Thing{
		ID:            "174430",
		Name:          "Gloomhaven",
		YearPublished: 2017,
		MinPlayers:    1,
		MaxPlayers:    4,
		MinPlaytime:   60,
		MaxPlaytime:   120,
		AverageRating: 8.6,
		Ranks: []bgg.Rank{
			{Type: "subtype", Name: "boardgame", Value: 3},
			{Type: "family", Name: "strategygames", Value: 1},
			{Type: "family", Name: "thematic", Value: 0},      // unranked
			{Type: "family", Name: "cryptic-list", Value: 42}, // untracked list
		},
	}

	d := FromThing(thing)
	require.Equal(t, "174430", d.ID)
	require.Equal(t, 3, d.OverallRank)

	require.NotNil(t, d.CategoryRank(CategoryStrategy))
	require.Equal(t, 1, *d.CategoryRank(CategoryStrategy))
	require.Nil(t, d.CategoryRank(CategoryThematic), "rank 0 stays nil")
	require.Len(t, d.CategoryRanks, 1)
}

func TestSortByOverallRank(t *testing.T) {
	games := []Data{
		{ID: "a", OverallRank: 0},
		{ID: "b", OverallRank: 5},
		{ID: "c", OverallRank: 1},
	}
	SortByOverallRank(games)
	require.Equal(t, "c", games[0].ID)
	require.Equal(t, "b", games[1].ID)
	require.Equal(t, "a", games[2].ID, "unranked sorts last")
}

func TestSortByCategoryRank(t *testing.T) {
	two, nine := 2, 9
	games := []Data{
		{ID: "a"},
		{ID: "b", CategoryRanks: map[Category]*int{CategoryParty: &nine}},
		{ID: "c", CategoryRanks: map[Category]*int{CategoryParty: &two}},
	}
	SortByCategoryRank(games, CategoryParty)
	require.Equal(t, []string{"c", "b", "a"}, []string{games[0].ID, games[1].ID, games[2].ID})
}

func TestSortForSearchTieBreak(t *testing.T) {
	games := []Data{
		{ID: "unranked-z", Name: "Zebra Run", OverallRank: 0, AverageRating: 6.0},
		{ID: "rank-50", Name: "Azul Duel", OverallRank: 50, AverageRating: 7.5},
		{ID: "exact", Name: "AZUL", OverallRank: 70, AverageRating: 7.9},
		{ID: "rank-10", Name: "Azul Summer", OverallRank: 10, AverageRating: 8.0},
		{ID: "unranked-hi", Name: "Mosaic", OverallRank: 0, AverageRating: 8.2},
		{ID: "unranked-alpha", Name: "Alhambra Tiles", OverallRank: 0, AverageRating: 6.0},
	}

	SortForSearch(games, "azul")

	got := make([]string, len(games))
	for i, g := range games {
		got[i] = g.ID
	}
	require.Equal(t, []string{
		"exact",   // exact case-insensitive name match first
		"rank-10", // then ranked ascending
		"rank-50",
		"unranked-hi",    // unranked: rating descending
		"unranked-alpha", // rating tie: alphabetical
		"unranked-z",
	}, got)

	// Deterministic and repeatable.
	SortForSearch(games, "azul")
	for i, g := range games {
		require.Equal(t, got[i], g.ID)
	}
}
