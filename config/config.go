// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration. Every field has a workable
// default; the environment only has to name what differs.
type Config struct {
	// APIBaseURL is the metadata API root.
	APIBaseURL string `env:"BGB_API_BASE_URL" envDefault:"https://boardgamegeek.com/xmlapi2"`

	// HTTPTimeout bounds each upstream request.
	HTTPTimeout time.Duration `env:"BGB_HTTP_TIMEOUT" envDefault:"30s"`

	// CacheDir is where the persistent caches keep their blobs.
	CacheDir string `env:"BGB_CACHE_DIR" envDefault:".boardgameborrow/cache"`

	// DatabasePath is the SQLite file holding rankings and usage counters.
	DatabasePath string `env:"BGB_DB_PATH" envDefault:".boardgameborrow/rankings.db"`

	// UsageThreshold is the access count at which the refresh job preserves
	// a game's cached data.
	UsageThreshold int `env:"BGB_USAGE_THRESHOLD" envDefault:"10"`

	// SearchBatchSize and SearchBatchDelay shape the interactive search
	// fan-out against the upstream rate limit.
	SearchBatchSize  int           `env:"BGB_SEARCH_BATCH_SIZE" envDefault:"5"`
	SearchBatchDelay time.Duration `env:"BGB_SEARCH_BATCH_DELAY" envDefault:"1s"`

	// RankingBatchSize and RankingBatchDelay shape the bulk category
	// fan-out.
	RankingBatchSize  int           `env:"BGB_RANKING_BATCH_SIZE" envDefault:"10"`
	RankingBatchDelay time.Duration `env:"BGB_RANKING_BATCH_DELAY" envDefault:"500ms"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"BGB_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
