// Package cache provides byte caches for registry responses.
//
// Three backends implement [Cache]:
//   - [FileCache] stores entries as JSON files under a directory (CLI default)
//   - [RedisCache] stores entries in Redis (shared deployments, the API server)
//   - [NullCache] stores nothing (caching disabled, tests)
//
// Values are opaque bytes; callers serialise their own payloads. A zero TTL
// means the entry does not expire.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with per-entry expiry.
//
// Get reports a miss with ok == false and a nil error; errors are reserved
// for backend failures. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error
	Close() error
}

// HTTPKey builds the cache key for an HTTP response in a registry
// namespace, e.g. HTTPKey("pypi:", "requests@2.31.0").
func HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}
