// Package telemetry defines the cache event shape and the sink interface
// the cache reports into. Sinks feed an external metrics dashboard; the
// cache itself has no compile-time dependency on any analytics backend.
package telemetry

// Operation is the kind of cache operation an event describes.
type Operation string

const (
	OpHit   Operation = "hit"
	OpMiss  Operation = "miss"
	OpSet   Operation = "set"
	OpEvict Operation = "evict"
)

// Reason qualifies why an eviction happened.
type Reason string

const (
	// ReasonExpired marks entries removed because of age or a schema
	// version mismatch.
	ReasonExpired Reason = "expired"
	// ReasonSizeLimit marks entries removed to make room for new ones.
	ReasonSizeLimit Reason = "size_limit"
)

// Event is one cache telemetry event.
type Event struct {
	CacheName string    `json:"cacheName"`
	Operation Operation `json:"operation"`
	Key       string    `json:"key,omitempty"`
	Reason    Reason    `json:"reason,omitempty"`
}

// Sink receives cache events.
type Sink interface {
	Record(event Event)
}

// Nop is a Sink that discards every event.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(Event) {}
