package entgroup

import (
	"context"
	"strconv"
	"time"
)

// Cache is the interface for caching encoded entity records outside the
// database. Implement it with your preferred backend (e.g. Redis,
// Memcached, in-memory). Values are the msgpack-encoded form of a Record
// (see entity.EncodeRecord).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies one entity record in a Cache.
type CacheKey struct {
	Table string
	ID    int64
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return k.Table + ":" + strconv.FormatInt(k.ID, 10)
}

// Prefix returns the key prefix shared by all records of the table,
// suitable for Cache.DeletePrefix.
func (k CacheKey) Prefix() string {
	return k.Table + ":"
}
