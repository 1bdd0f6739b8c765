package metadata

// Curated popular games shown on the landing surface. Hand-picked gateway
// and top-ranked titles; the order here is irrelevant, display order comes
// from the overall rank sort.
var curatedPopularIDs = []string{
	"13",     // Catan
	"822",    // Carcassonne
	"30549",  // Pandemic
	"68448",  // 7 Wonders
	"148228", // Splendor
	"178900", // Codenames
	"230802", // Azul
	"266192", // Wingspan
	"167791", // Terraforming Mars
	"174430", // Gloomhaven
	"224517", // Brass: Birmingham
	"161936", // Pandemic Legacy: Season 1
	"31260",  // Agricola
	"2651",   // Power Grid
	"173346", // 7 Wonders Duel
	"169786", // Scythe
}

func popularGameIDs() []string {
	ids := make([]string, len(curatedPopularIDs))
	copy(ids, curatedPopularIDs)
	return ids
}
