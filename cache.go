// Package boardgameborrow provides the game-metadata caching core for the
// BoardGameBorrow app: a generic, versioned, TTL-bound, size-bounded
// persistent cache and a rate-limited batch fetcher.
package boardgameborrow

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ken-allen-3/boardgameborrow/telemetry"
)

// Entry represents a cached value with the metadata needed to judge its
// freshness on read.
type Entry[T any] struct {
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"` // write time, epoch millis
	Data      T      `json:"data"`
}

// Cache is a named, versioned, TTL-aware, size-bounded key/value cache
// backed by a durable blob store. The cache owns only regenerable copies of
// externally-sourced data; it is never the system of record.
//
// The whole map is loaded from the blob store at construction and written
// back on every mutation. Entry counts are capped, so whole-value
// persistence stays cheap.
type Cache[T any] struct {
	name    string
	version string
	ttl     time.Duration
	maxSize int
	store   Blob
	sink    telemetry.Sink
	logger  *slog.Logger
	now     func() time.Time
	onHit   func(key string)

	mu      sync.Mutex
	entries map[string]Entry[T]
}

// Blob is the durable-store binding the cache persists through. It matches
// store.Blob; redeclared here so the core package depends only on the
// contract.
type Blob interface {
	Load(name string) ([]byte, error)
	Save(name string, data []byte) error
}

// New creates a cache named name and reloads its contents from the
// configured blob store. A storage read failure is logged and the cache
// starts empty; it is never fatal.
func New[T any](name string, opts ...Option[T]) *Cache[T] {
	options := defaultOptions[T]()
	for _, opt := range opts {
		opt(options)
	}

	c := &Cache[T]{
		name:    name,
		version: options.Version,
		ttl:     options.TTL,
		maxSize: options.MaxSize,
		store:   options.Store,
		sink:    options.Sink,
		logger:  options.Logger,
		now:     options.Now,
		onHit:   options.OnHit,
		entries: make(map[string]Entry[T]),
	}

	c.load()
	return c
}

// load replaces the in-memory map with the persisted one, if any.
func (c *Cache[T]) load() {
	if c.store == nil {
		return
	}
	data, err := c.store.Load(c.name)
	if err != nil {
		c.logger.Warn("cache load failed, starting empty",
			"cache", c.name, "error", err)
		return
	}
	if len(data) == 0 {
		return
	}
	var entries map[string]Entry[T]
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("cache blob corrupt, starting empty",
			"cache", c.name, "error", err)
		return
	}
	c.entries = entries
}

// persist writes the full map back to the blob store. A write failure is
// logged; the in-memory state stays correct for the rest of the session but
// durability is lost.
func (c *Cache[T]) persist() {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		c.logger.Warn("cache marshal failed", "cache", c.name, "error", err)
		return
	}
	if err := c.store.Save(c.name, data); err != nil {
		c.logger.Warn("cache persist failed", "cache", c.name, "error", err)
	}
}

// fresh reports whether an entry is usable: its version matches the cache's
// current version and its age is below the TTL.
func (c *Cache[T]) fresh(e Entry[T]) bool {
	if e.Version != c.version {
		return false
	}
	age := c.now().UnixMilli() - e.Timestamp
	return age < c.ttl.Milliseconds()
}

// Get looks up key. Entries whose version no longer matches or whose age
// exceeds the TTL are evicted on read. Returns the zero value and false on
// miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.sink.Record(telemetry.Event{
			CacheName: c.name,
			Operation: telemetry.OpMiss,
			Key:       key,
		})
		var zero T
		return zero, false
	}

	if !c.fresh(entry) {
		delete(c.entries, key)
		c.persist()
		c.sink.Record(telemetry.Event{
			CacheName: c.name,
			Operation: telemetry.OpEvict,
			Key:       key,
			Reason:    telemetry.ReasonExpired,
		})
		var zero T
		return zero, false
	}

	c.sink.Record(telemetry.Event{
		CacheName: c.name,
		Operation: telemetry.OpHit,
		Key:       key,
	})
	if c.onHit != nil {
		c.onHit(key)
	}
	return entry.Data, true
}

// Set inserts or overwrites the entry for key with a fresh version and
// timestamp. At capacity, the oldest ceil(20%) of entries by timestamp are
// evicted first.
func (c *Cache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	c.entries[key] = Entry[T]{
		Version:   c.version,
		Timestamp: c.now().UnixMilli(),
		Data:      data,
	}
	c.sink.Record(telemetry.Event{
		CacheName: c.name,
		Operation: telemetry.OpSet,
		Key:       key,
	})
	c.persist()
}

// evictOldestLocked removes the oldest ceil(20%) of entries by timestamp.
// Caller holds c.mu.
func (c *Cache[T]) evictOldestLocked() {
	type aged struct {
		key string
		ts  int64
	}
	byAge := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		byAge = append(byAge, aged{key: k, ts: e.Timestamp})
	}
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].ts < byAge[j].ts })

	count := (len(byAge) + 4) / 5 // ceil(20%)
	for _, a := range byAge[:count] {
		delete(c.entries, a.key)
		c.sink.Record(telemetry.Event{
			CacheName: c.name,
			Operation: telemetry.OpEvict,
			Key:       a.key,
			Reason:    telemetry.ReasonSizeLimit,
		})
	}
}

// Clear empties the cache and persists the empty map.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry[T])
	c.persist()
}

// Len returns the number of entries currently held, fresh or not.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns all keys currently held, in no particular order.
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
