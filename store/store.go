// Package store provides durable blob-store bindings for the cache.
//
// A Blob store holds one opaque value per named cache. The cache reads the
// whole value at construction and writes the whole value on every mutation;
// there are no partial reads or transactions.
package store

// Blob is a string-keyed blob store supporting whole-value get/set under a
// single key per named cache.
type Blob interface {
	// Load returns the stored blob for name. A missing blob is not an
	// error: Load returns (nil, nil).
	Load(name string) ([]byte, error)

	// Save stores the blob for name, replacing any previous value.
	Save(name string, data []byte) error
}
