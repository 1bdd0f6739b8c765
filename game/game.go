package game

import (
	"github.com/ken-allen-3/boardgameborrow/bgg"
)

// overallRankName is the upstream identifier of the overall ranking list.
const overallRankName = "boardgame"

// Data is one game record. The cache treats it as an opaque payload; the
// metadata service and the refresh job interpret its fields.
type Data struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	YearPublished int               `json:"yearPublished,omitempty"`
	Description   string            `json:"description,omitempty"`
	Image         string            `json:"image,omitempty"`
	MinPlayers    int               `json:"minPlayers"`
	MaxPlayers    int               `json:"maxPlayers"`
	MinPlaytime   int               `json:"minPlaytime"`
	MaxPlaytime   int               `json:"maxPlaytime"`
	AverageRating float64           `json:"averageRating,omitempty"`
	OverallRank   int               `json:"overallRank,omitempty"` // 0 = unranked
	CategoryRanks map[Category]*int `json:"categoryRanks,omitempty"`
}

// CategoryRank returns the game's rank in c, or nil if unranked there.
func (d Data) CategoryRank(c Category) *int {
	if d.CategoryRanks == nil {
		return nil
	}
	return d.CategoryRanks[c]
}

// FromThing converts an upstream game record into the domain record,
// resolving rank lists into the closed category set.
func FromThing(t bgg.Thing) Data {
	d := Data{
		ID:            t.ID,
		Name:          t.Name,
		YearPublished: t.YearPublished,
		Description:   t.Description,
		Image:         t.Image,
		MinPlayers:    t.MinPlayers,
		MaxPlayers:    t.MaxPlayers,
		MinPlaytime:   t.MinPlaytime,
		MaxPlaytime:   t.MaxPlaytime,
		AverageRating: t.AverageRating,
	}

	for _, rank := range t.Ranks {
		if rank.Name == overallRankName {
			d.OverallRank = rank.Value
			continue
		}
		category, ok := CategoryForRankName(rank.Name)
		if !ok || rank.Value == 0 {
			continue
		}
		if d.CategoryRanks == nil {
			d.CategoryRanks = make(map[Category]*int)
		}
		value := rank.Value
		d.CategoryRanks[category] = &value
	}
	return d
}
