package driven

import (
	"context"
	"time"
)

// ResultCache is a thin opaque-value KV-with-TTL used read-through on the
// search path. Implementations must degrade gracefully: any fault is the
// caller's cue to proceed as if uncached, never to fail the request.
type ResultCache interface {
	// Get returns the raw bytes stored under key, or found=false on miss
	// or fault.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Stats reports hit/miss counters for /stats, when the backend
	// supports it. Implementations that can't compute this return zeros.
	Stats(ctx context.Context) (hits, misses int64, err error)

	// Ping checks whether the cache backend is reachable.
	Ping(ctx context.Context) error
}
