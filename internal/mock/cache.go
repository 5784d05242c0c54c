package mock

import (
	"context"
	"sync"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/port"
)

// KVCache implements cache behaviour for tests.
type KVCache struct {
	mu sync.Mutex

	// stored results, keyed by cache key
	Entries map[string]*port.CacheResult

	// recorded writes
	SetKeys   []string
	SetData   map[string][]byte
	SetTTLs   map[string]time.Duration
	Removed   []string
	ClearedAt int

	// call flags
	GetCalled          bool
	CheckVersionCalled bool
}

var _ port.KVCache = (*KVCache)(nil)

func NewKVCache() *KVCache {
	return &KVCache{
		Entries: make(map[string]*port.CacheResult),
		SetData: make(map[string][]byte),
		SetTTLs: make(map[string]time.Duration),
	}
}

// Seed installs a hit for key.
func (c *KVCache) Seed(key string, data []byte, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries[key] = &port.CacheResult{Data: data, IsStale: stale}
}

func (c *KVCache) Get(ctx context.Context, key string) *port.CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalled = true
	return c.Entries[key]
}

func (c *KVCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetKeys = append(c.SetKeys, key)
	c.SetData[key] = data
	c.SetTTLs[key] = ttl
	c.Entries[key] = &port.CacheResult{Data: data}
}

func (c *KVCache) Remove(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Removed = append(c.Removed, key)
	delete(c.Entries, key)
}

func (c *KVCache) ClearAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ClearedAt++
	c.Entries = make(map[string]*port.CacheResult)
}

func (c *KVCache) CheckVersion(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CheckVersionCalled = true
}

// SetCount reports how many writes landed for key.
func (c *KVCache) SetCount(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, k := range c.SetKeys {
		if k == key {
			n++
		}
	}
	return n
}
