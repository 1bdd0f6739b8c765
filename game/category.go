// Package game holds the domain types for board-game metadata: the game
// record that flows through the caches and stores, and the closed set of
// ranking categories.
package game

// Category is one of the fixed ranking categories the app tracks.
// Representing the set as a closed enumeration with explicit upstream
// mappings makes an unsupported category a compile-time concern.
type Category string

const (
	CategoryAbstracts Category = "abstracts"
	CategoryCGS       Category = "cgs"
	CategoryChildrens Category = "childrens"
	CategoryFamily    Category = "family"
	CategoryParty     Category = "party"
	CategoryStrategy  Category = "strategy"
	CategoryThematic  Category = "thematic"
	CategoryWargames  Category = "wargames"
)

// Categories returns the supported categories in their fixed refresh order.
func Categories() []Category {
	return []Category{
		CategoryAbstracts,
		CategoryCGS,
		CategoryChildrens,
		CategoryFamily,
		CategoryParty,
		CategoryStrategy,
		CategoryThematic,
		CategoryWargames,
	}
}

// upstreamRankNames maps each category to the rank-list identifier the
// metadata API uses in its statistics block.
var upstreamRankNames = map[Category]string{
	CategoryAbstracts: "abstracts",
	CategoryCGS:       "cgs",
	CategoryChildrens: "childrensgames",
	CategoryFamily:    "familygames",
	CategoryParty:     "partygames",
	CategoryStrategy:  "strategygames",
	CategoryThematic:  "thematic",
	CategoryWargames:  "wargames",
}

// searchQueries maps each category to the free-text query used to list it
// upstream.
var searchQueries = map[Category]string{
	CategoryAbstracts: "abstract strategy",
	CategoryCGS:       "card game",
	CategoryChildrens: "childrens game",
	CategoryFamily:    "family game",
	CategoryParty:     "party game",
	CategoryStrategy:  "strategy game",
	CategoryThematic:  "thematic game",
	CategoryWargames:  "war game",
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	_, ok := upstreamRankNames[c]
	return ok
}

// UpstreamRankName returns the rank-list identifier for c in upstream
// statistics blocks.
func (c Category) UpstreamRankName() string {
	return upstreamRankNames[c]
}

// SearchQuery returns the upstream free-text query that lists c.
func (c Category) SearchQuery() string {
	return searchQueries[c]
}

// categoryByRankName is the reverse of upstreamRankNames.
var categoryByRankName = func() map[string]Category {
	m := make(map[string]Category, len(upstreamRankNames))
	for c, name := range upstreamRankNames {
		m[name] = c
	}
	return m
}()

// CategoryForRankName resolves an upstream rank-list identifier back to a
// Category. The second result is false for rank lists the app does not
// track (including the overall "boardgame" list).
func CategoryForRankName(name string) (Category, bool) {
	c, ok := categoryByRankName[name]
	return c, ok
}
