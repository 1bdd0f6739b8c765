package boardgameborrow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ken-allen-3/boardgameborrow/store"
)

type game struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

func TestFileStoreIntegration(t *testing.T) {
	fileStore, err := store.NewFile(t.TempDir())
	require.NoError(t, err)

	cache := New[game]("game-details",
		WithStore[game](fileStore),
		WithTTL[game](time.Hour),
	)

	cache.Set("174430", game{ID: "174430", Name: "Gloomhaven", Rank: 1})
	cache.Set("13", game{ID: "13", Name: "Catan", Rank: 429})

	// A second cache over the same file picks up the persisted entries.
	reloaded := New[game]("game-details",
		WithStore[game](fileStore),
		WithTTL[game](time.Hour),
	)
	require.Equal(t, 2, reloaded.Len())

	value, ok := reloaded.Get("174430")
	require.True(t, ok)
	require.Equal(t, "Gloomhaven", value.Name)
	require.Equal(t, 1, value.Rank)
}

func TestFileStoreEvictionPersists(t *testing.T) {
	fileStore, err := store.NewFile(t.TempDir())
	require.NoError(t, err)
	clock := newFakeClock()

	cache := New[game]("game-details",
		WithStore[game](fileStore),
		WithTTL[game](time.Hour),
		WithClock[game](clock.Now),
	)
	cache.Set("13", game{ID: "13", Name: "Catan"})
	clock.Advance(2 * time.Hour)

	_, ok := cache.Get("13")
	require.False(t, ok)

	// The eviction was persisted, not just dropped from memory.
	reloaded := New[game]("game-details",
		WithStore[game](fileStore),
		WithTTL[game](time.Hour),
		WithClock[game](clock.Now),
	)
	require.Zero(t, reloaded.Len())
}
