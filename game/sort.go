package game

import (
	"sort"
	"strings"
)

// unrankedSentinel sorts rank-0 (unranked) games after every ranked game.
const unrankedSentinel = 1 << 30

func rankOrSentinel(rank int) int {
	if rank <= 0 {
		return unrankedSentinel
	}
	return rank
}

// SortByOverallRank orders games ascending by overall rank, unranked last.
func SortByOverallRank(games []Data) {
	sort.SliceStable(games, func(i, j int) bool {
		return rankOrSentinel(games[i].OverallRank) < rankOrSentinel(games[j].OverallRank)
	})
}

// SortByCategoryRank orders games ascending by their rank in c. Games
// without a rank in c sort last.
func SortByCategoryRank(games []Data, c Category) {
	rank := func(d Data) int {
		if r := d.CategoryRank(c); r != nil {
			return rankOrSentinel(*r)
		}
		return unrankedSentinel
	}
	sort.SliceStable(games, func(i, j int) bool {
		return rank(games[i]) < rank(games[j])
	})
}

// SortForSearch orders search candidates by the four-level tie-break:
// exact case-insensitive name matches first, then ranked games ascending
// by overall rank (unranked last), then descending average rating, then
// alphabetical by name.
func SortForSearch(games []Data, query string) {
	lowered := strings.ToLower(strings.TrimSpace(query))

	sort.SliceStable(games, func(i, j int) bool {
		a, b := games[i], games[j]

		aExact := strings.ToLower(a.Name) == lowered
		bExact := strings.ToLower(b.Name) == lowered
		if aExact != bExact {
			return aExact
		}

		aRank := rankOrSentinel(a.OverallRank)
		bRank := rankOrSentinel(b.OverallRank)
		if aRank != bRank {
			return aRank < bRank
		}

		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}

		return a.Name < b.Name
	})
}
