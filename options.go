package boardgameborrow

import (
	"log/slog"
	"time"

	"github.com/ken-allen-3/boardgameborrow/telemetry"
)

// Options represents cache configuration options
type Options[T any] struct {
	// Version tags entries with the schema in effect when they were
	// written. Bumping it silently invalidates all prior entries on read.
	Version string

	// TTL bounds the age of a usable entry.
	TTL time.Duration

	// MaxSize is the maximum number of entries the cache holds.
	MaxSize int

	// Store is the durable blob-store binding. Nil disables persistence.
	Store Blob

	// Sink receives hit/miss/set/evict telemetry events.
	Sink telemetry.Sink

	// Logger receives storage-degradation warnings.
	Logger *slog.Logger

	// Now supplies the clock. Tests inject a fake.
	Now func() time.Time

	// OnHit is called with the key after every cache hit. The metadata
	// service uses it to bump usage counters.
	OnHit func(key string)
}

// Option is a function that configures cache options
type Option[T any] func(*Options[T])

// WithVersion sets the cache schema version.
func WithVersion[T any](version string) Option[T] {
	return func(o *Options[T]) {
		o.Version = version
	}
}

// WithTTL sets the maximum usable entry age.
func WithTTL[T any](ttl time.Duration) Option[T] {
	return func(o *Options[T]) {
		o.TTL = ttl
	}
}

// WithMaxSize sets the maximum number of entries.
func WithMaxSize[T any](size int) Option[T] {
	return func(o *Options[T]) {
		o.MaxSize = size
	}
}

// WithStore sets the durable blob-store binding.
func WithStore[T any](s Blob) Option[T] {
	return func(o *Options[T]) {
		o.Store = s
	}
}

// WithSink sets the telemetry sink.
func WithSink[T any](sink telemetry.Sink) Option[T] {
	return func(o *Options[T]) {
		o.Sink = sink
	}
}

// WithLogger sets the logger.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(o *Options[T]) {
		o.Logger = logger
	}
}

// WithClock sets the time source.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(o *Options[T]) {
		o.Now = now
	}
}

// WithOnHit sets a hook invoked after every cache hit.
func WithOnHit[T any](fn func(key string)) Option[T] {
	return func(o *Options[T]) {
		o.OnHit = fn
	}
}

// defaultOptions returns the default cache options
func defaultOptions[T any]() *Options[T] {
	return &Options[T]{
		Version: "1.0",
		TTL:     24 * time.Hour,
		MaxSize: 100,
		Sink:    telemetry.Nop{},
		Logger:  slog.Default(),
		Now:     time.Now,
	}
}
