// Package cache stores serialized run results keyed by a hash of their
// inputs.
//
// Three backends are provided: [FileCache] for the command line,
// [RedisCache] for the HTTP server and [NullCache] to disable caching.
// Keys are produced by a [Keyer] so that a server can namespace them.
package cache

import (
	"context"
	"time"
)

// TTLRun is how long a cached run result stays valid.
const TTLRun = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
//
// Get reports a miss as (nil, false, nil); an error is returned only when
// the backend itself failed. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache never stores anything.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
