// Package rankings persists the durable, shared state the metadata core and
// the refresh job cooperate on: monthly category-ranking documents and
// per-game usage counters, backed by SQLite.
package rankings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ken-allen-3/boardgameborrow/errors"
	"github.com/ken-allen-3/boardgameborrow/game"
	"github.com/ken-allen-3/boardgameborrow/rankings/migrations"
)

// Provenance tags who produced a record.
const (
	SourceAPI       = "api"
	SourceImport    = "import"
	SourceDetection = "detection"
)

// Document is one category's rankings snapshot for one calendar month.
type Document struct {
	Category       game.Category `json:"category"`
	Month          string        `json:"month"` // YYYY-MM
	Games          []game.Data   `json:"games"`
	LastUpdated    time.Time     `json:"lastUpdated"`
	Source         string        `json:"source"`
	TotalGames     int           `json:"totalGames"`
	PreservedGames int           `json:"preservedGames"`
	RefreshedAt    string        `json:"refreshedAt"` // ISO 8601
	RunID          string        `json:"runId,omitempty"`
}

// UsageRecord is one game's access counter.
type UsageRecord struct {
	GameID       string    `json:"gameId"`
	UsageCount   int       `json:"usageCount"`
	LastAccessed time.Time `json:"lastAccessed"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Source       string    `json:"source"`
}

// MonthKey formats t as the YYYY-MM partition key.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Store persists rankings documents and usage counters in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source. Tests inject a fake.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens a SQLite rankings store at path and applies embedded
// migrations.
func Open(path string, opts ...StoreOption) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{sqlDB: sqlDB, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Rankings loads the document for (category, month). The second result is
// false when no document exists.
func (s *Store) Rankings(ctx context.Context, category game.Category, month string) (Document, bool, error) {
	if !category.Valid() {
		return Document{}, false, errors.Wrap("Rankings", string(category), errors.ErrInvalidCategory)
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT games, last_updated, source, total_games, preserved_games, refreshed_at, run_id
		   FROM rankings WHERE category = ? AND month = ?`,
		string(category), month)

	var (
		gamesJSON   string
		lastUpdated int64
		doc         = Document{Category: category, Month: month}
	)
	err := row.Scan(&gamesJSON, &lastUpdated, &doc.Source, &doc.TotalGames,
		&doc.PreservedGames, &doc.RefreshedAt, &doc.RunID)
	if err == sql.ErrNoRows {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, errors.Wrap("Rankings", string(category),
			fmt.Errorf("%w: %v", errors.ErrStorage, err))
	}

	if err := json.Unmarshal([]byte(gamesJSON), &doc.Games); err != nil {
		return Document{}, false, errors.Wrap("Rankings", string(category),
			fmt.Errorf("%w: decode games: %v", errors.ErrStorage, err))
	}
	doc.LastUpdated = fromMillis(lastUpdated)
	return doc, true, nil
}

// PutRankings upserts the document for (doc.Category, doc.Month).
// Last writer wins; re-running a refresh for the same month overwrites the
// previous snapshot rather than appending.
func (s *Store) PutRankings(ctx context.Context, doc Document) error {
	if !doc.Category.Valid() {
		return errors.Wrap("PutRankings", string(doc.Category), errors.ErrInvalidCategory)
	}
	if doc.Month == "" {
		return errors.Wrap("PutRankings", string(doc.Category),
			fmt.Errorf("month key is required"))
	}

	gamesJSON, err := json.Marshal(doc.Games)
	if err != nil {
		return errors.Wrap("PutRankings", string(doc.Category),
			fmt.Errorf("%w: encode games: %v", errors.ErrStorage, err))
	}

	lastUpdated := doc.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = s.now()
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO rankings
		   (category, month, games, last_updated, source, total_games, preserved_games, refreshed_at, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (category, month) DO UPDATE SET
		   games = excluded.games,
		   last_updated = excluded.last_updated,
		   source = excluded.source,
		   total_games = excluded.total_games,
		   preserved_games = excluded.preserved_games,
		   refreshed_at = excluded.refreshed_at,
		   run_id = excluded.run_id`,
		string(doc.Category), doc.Month, string(gamesJSON), toMillis(lastUpdated),
		doc.Source, doc.TotalGames, doc.PreservedGames, doc.RefreshedAt, doc.RunID)
	if err != nil {
		return errors.Wrap("PutRankings", string(doc.Category),
			fmt.Errorf("%w: %v", errors.ErrStorage, err))
	}
	return nil
}

// IncrementUsage bumps the access counter for gameID, creating the record
// on first access. Source records the provenance of the counted access.
func (s *Store) IncrementUsage(ctx context.Context, gameID, source string) error {
	if strings.TrimSpace(gameID) == "" {
		return errors.Wrap("IncrementUsage", gameID, fmt.Errorf("game id is required"))
	}
	now := toMillis(s.now())

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_usage (game_id, usage_count, last_accessed, last_updated, source)
		 VALUES (?, 1, ?, ?, ?)
		 ON CONFLICT (game_id) DO UPDATE SET
		   usage_count = usage_count + 1,
		   last_accessed = excluded.last_accessed,
		   last_updated = excluded.last_updated`,
		gameID, now, now, source)
	if err != nil {
		return errors.Wrap("IncrementUsage", gameID,
			fmt.Errorf("%w: %v", errors.ErrStorage, err))
	}
	return nil
}

// Usage loads the usage record for gameID. The second result is false when
// the game has never been accessed.
func (s *Store) Usage(ctx context.Context, gameID string) (UsageRecord, bool, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT game_id, usage_count, last_accessed, last_updated, source
		   FROM game_usage WHERE game_id = ?`, gameID)

	var (
		rec                       UsageRecord
		lastAccessed, lastUpdated int64
	)
	err := row.Scan(&rec.GameID, &rec.UsageCount, &lastAccessed, &lastUpdated, &rec.Source)
	if err == sql.ErrNoRows {
		return UsageRecord{}, false, nil
	}
	if err != nil {
		return UsageRecord{}, false, errors.Wrap("Usage", gameID,
			fmt.Errorf("%w: %v", errors.ErrStorage, err))
	}
	rec.LastAccessed = fromMillis(lastAccessed)
	rec.LastUpdated = fromMillis(lastUpdated)
	return rec, true, nil
}

// HighUsageIDs returns the ids of games whose usage counter meets or
// exceeds threshold.
func (s *Store) HighUsageIDs(ctx context.Context, threshold int) (map[string]bool, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT game_id FROM game_usage WHERE usage_count >= ?`, threshold)
	if err != nil {
		return nil, errors.Wrap("HighUsageIDs", "",
			fmt.Errorf("%w: %v", errors.ErrStorage, err))
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap("HighUsageIDs", "",
				fmt.Errorf("%w: %v", errors.ErrStorage, err))
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap("HighUsageIDs", "",
			fmt.Errorf("%w: %v", errors.ErrStorage, err))
	}
	return ids, nil
}
