// Package cache provides byte-level key/value storage with optional expiry.
//
// Every backend implements [Cache]. Values are opaque bytes; callers such as
// the document store decide what they mean. Keys are produced by a [Keyer]
// so that all components agree on the layout of the key space.
//
// # Backends
//
//   - [NullCache]: stores nothing, every Get misses
//   - [FileCache]: one JSON file per entry, sharded by SHA-256 of the key
//   - [RedisCache]: Redis via go-redis, expiry handled by the server
//   - [MongoCache]: one document per entry, expiry through a TTL index
//
// [Open] builds a backend from [Options], which is what the CLI and the
// server use.
//
// # Errors
//
// Backends report transient failures wrapped with [Retryable];
// [RetryWithBackoff] retries only those.
package cache

import (
	"context"
	"time"
)

// Cache is a byte cache. Get reports a miss as (nil, false, nil).
// A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates the cache keys used across typegraph.
type Keyer interface {
	// DocumentKey names the stored transport text of a document.
	DocumentKey(id string) string
	// ArtifactKey names a rendering derived from a document, such as its SVG.
	ArtifactKey(id, format string) string
}

// DefaultKeyer is the unscoped key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key layout.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DocumentKey returns "doc:<id>".
func (DefaultKeyer) DocumentKey(id string) string { return "doc:" + id }

// ArtifactKey hashes the document ID and format under the "artifact" prefix.
func (DefaultKeyer) ArtifactKey(id, format string) string {
	return hashKey("artifact", id, format)
}
