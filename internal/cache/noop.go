package cache

import (
	"context"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/port"
)

type NoopCache struct{}

// compile-time check: *NoopCache must satisfy port.KVCache
var _ port.KVCache = (*NoopCache)(nil)

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) Get(ctx context.Context, key string) *port.CacheResult {
	return nil // always cache miss
}

func (n *NoopCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {}

func (n *NoopCache) Remove(ctx context.Context, key string) {}

func (n *NoopCache) ClearAll(ctx context.Context) {}

func (n *NoopCache) CheckVersion(ctx context.Context) {}
