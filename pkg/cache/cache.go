// Package cache stores computed plans and decompositions.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for multi-instance API servers
//   - [NullCache]: never stores anything, for --no-cache and tests
//
// All backends implement [Cache]. Values are opaque bytes; callers encode
// results as JSON.
//
// # Keys
//
// Cache keys are content hashes. A [Keyer] derives them from the garden
// document, the plant list and the planning options, so any change to an
// input produces a different key and stale entries simply age out:
//
//	k := cache.NewDefaultKeyer()
//	key := k.PlanKey(gardenHash, plantsHash, cache.PlanKeyOpts{Policy: pol})
//
// [NewScopedKeyer] prefixes every key, for example per tenant on a shared
// Redis instance.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	// PlanTTL is how long planned gardens stay cached.
	PlanTTL = 7 * 24 * time.Hour

	// DecomposeTTL is how long specimen decompositions stay cached.
	DecomposeTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value cache with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss returns (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
