package bgg

// Thing is one game record from the thing endpoint, flattened out of the
// XML envelope.
type Thing struct {
	ID            string
	Name          string
	YearPublished int
	Description   string
	Image         string
	Thumbnail     string
	MinPlayers    int
	MaxPlayers    int
	MinPlaytime   int
	MaxPlaytime   int
	AverageRating float64
	Ranks         []Rank
}

// Rank is one ranked-list position for a game. Name is the upstream rank
// list identifier ("boardgame" for the overall list, family names like
// "strategygames" otherwise). Value 0 means unranked.
type Rank struct {
	Type  string
	Name  string
	Value int
}

// SearchResult is one hit from the search endpoint.
type SearchResult struct {
	ID            string
	Name          string
	YearPublished int
}

// xmlValue is the common value-attribute element of the XML API.
type xmlValue struct {
	Value string `xml:"value,attr"`
}

type thingEnvelope struct {
	Items []thingItem `xml:"item"`
}

type thingItem struct {
	ID            string      `xml:"id,attr"`
	Type          string      `xml:"type,attr"`
	Names         []thingName `xml:"name"`
	YearPublished xmlValue    `xml:"yearpublished"`
	Description   string      `xml:"description"`
	Image         string      `xml:"image"`
	Thumbnail     string      `xml:"thumbnail"`
	MinPlayers    xmlValue    `xml:"minplayers"`
	MaxPlayers    xmlValue    `xml:"maxplayers"`
	MinPlaytime   xmlValue    `xml:"minplaytime"`
	MaxPlaytime   xmlValue    `xml:"maxplaytime"`
	Statistics    thingStats  `xml:"statistics"`
}

type thingName struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type thingStats struct {
	Ratings thingRatings `xml:"ratings"`
}

type thingRatings struct {
	Average xmlValue       `xml:"average"`
	Ranks   []thingRankRow `xml:"ranks>rank"`
}

type thingRankRow struct {
	Type  string `xml:"type,attr"`
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type searchEnvelope struct {
	Total int          `xml:"total,attr"`
	Items []searchItem `xml:"item"`
}

type searchItem struct {
	ID            string   `xml:"id,attr"`
	Name          xmlValue `xml:"name"`
	YearPublished xmlValue `xml:"yearpublished"`
}
