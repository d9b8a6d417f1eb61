// Package cache stores generated artifacts keyed by content hash.
//
// The export pipeline caches generated page source under a key derived from
// the layout's hash and the generator options, so repeated exports of an
// unchanged layout skip code generation. Backends:
//
//   - [NullCache] disables caching.
//   - [FileCache] keeps entries as JSON files (CLI default).
//   - [RedisCache] shares entries between server replicas.
//
// Cache failures are never fatal to callers: a failed Get is a miss and a
// failed Set is logged and ignored.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	TTLSource  = 7 * 24 * time.Hour
	TTLOutline = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// SourceKeyOpts are the generator settings that change generated source.
type SourceKeyOpts struct {
	ImportPath string `json:"import_path"`
	Registry   string `json:"registry"` // hash of the registered schemas
}

// Keyer derives cache keys.
type Keyer interface {
	// SourceKey is the key of generated page source for a layout hash.
	SourceKey(layoutHash string, opts SourceKeyOpts) string

	// OutlineKey is the key of a rendered outline SVG for a layout hash.
	OutlineKey(layoutHash string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SourceKey implements Keyer.
func (DefaultKeyer) SourceKey(layoutHash string, opts SourceKeyOpts) string {
	return hashKey("source", layoutHash, opts)
}

// OutlineKey implements Keyer.
func (DefaultKeyer) OutlineKey(layoutHash string) string {
	return hashKey("outline", layoutHash)
}
