// Package cache stores rendered artifacts such as layer SVGs.
//
// Three backends implement [Cache]:
//
//   - [NullCache] never stores anything (--no-cache)
//   - [FileCache] keeps JSON entries under the user cache directory for the CLI
//   - [LRUCache] keeps a bounded number of entries in memory for the server
//
// [Instrument] wraps any backend so hits, misses and writes reach the
// observability hooks.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/galaster/pkg/observability"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

type instrumented struct {
	Cache
	keyType string
}

// Instrument reports every operation on c to the cache hooks under keyType.
func Instrument(c Cache, keyType string) Cache {
	return &instrumented{Cache: c, keyType: keyType}
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, c.keyType)
		} else {
			observability.Cache().OnCacheMiss(ctx, c.keyType)
		}
	}
	return data, ok, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.keyType, len(data))
	return nil
}
