package port

import (
	"context"
	"encoding/json"
	"time"
)

// CacheResult is a cache hit. IsStale signals that the soft TTL elapsed and a
// background refresh is warranted; the data itself is still usable.
type CacheResult struct {
	Data    json.RawMessage
	IsStale bool
}

// KVCache provides TTL-cached key/value storage for listing payloads.
// Implementations never surface storage failures: a failed read is a miss and
// a failed write is a no-op. Caching is an optimisation, not a correctness
// dependency.
type KVCache interface {
	// Get returns the entry for key, or nil when missing, hard-expired or
	// unreadable.
	Get(ctx context.Context, key string) *CacheResult
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Remove(ctx context.Context, key string)
	// ClearAll removes every entry in this cache's namespace, leaving
	// unrelated persisted state untouched.
	ClearAll(ctx context.Context)
	// CheckVersion clears the namespace when the stored version tag does not
	// match the compiled-in one, then updates the tag.
	CheckVersion(ctx context.Context)
}
