// Package cache stores clustering results and rendered images between runs.
//
// All backends implement [Cache], a byte-oriented key/value store with
// per-entry expiry:
//
//   - [NullCache] stores nothing; used with --no-cache.
//   - [FileCache] keeps entries as JSON files under the user cache dir.
//   - [RedisCache] shares entries between render servers.
//   - [MongoCache] keeps entries as documents in a collection.
//
// Keys come from a [Keyer], so that every input that changes the output
// also changes the key:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ArtifactKey(m.Hash(), cache.ArtifactKeyOpts{Format: "png"})
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    return data
//	}
//
// Cache failures are never fatal to a render; callers log and continue.
package cache

import (
	"context"
	"time"
)

// Default lifetimes. Clustering only depends on the matrix and method, so it
// is kept longer than rendered artifacts.
const (
	ClusterTTL  = 30 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a key/value store for serialized results.
type Cache interface {
	// Get returns the stored value and true, or false on a miss. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases connections held by the backend.
	Close() error
}
