package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xaco47/wedding-archive-go/internal/port"
)

// DefaultTTL is the freshness window applied when callers pass ttl <= 0.
const DefaultTTL = 5 * time.Minute

// staleFactor stretches an entry's nominal TTL into its hard horizon: past
// expiresAt an entry is served flagged stale, past timestamp+staleFactor×ttl
// it is deleted and counts as a miss (30 min against the 5 min default).
const staleFactor = 6

// Version tags the shape of cached payloads. Bump it whenever the tiering or
// record layout changes; every client then drops its namespace on first read.
const Version = 2

const (
	keyPrefix  = "cache:"
	versionKey = "cache_version"
)

type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	ExpiresAt int64           `json:"expires_at"`
}

type Cache struct {
	client *redis.Client
	now    func() time.Time
}

// compile-time check: *Cache must satisfy port.KVCache
var _ port.KVCache = (*Cache)(nil)

func NewCache(addr, password string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &Cache{client: rdb, now: time.Now}
}

// Get returns the cached entry for key, flagged stale once the soft TTL has
// elapsed. Hard-expired or unreadable entries are deleted and reported as a
// miss. Storage failures degrade to a miss as well.
func (c *Cache) Get(ctx context.Context, key string) *port.CacheResult {
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		log.Printf("cache get %q failed: %v", key, err)
		return nil
	}

	var e entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		log.Printf("cache entry %q is corrupt, dropping it: %v", key, err)
		c.Remove(ctx, key)
		return nil
	}

	now := c.now().UnixMilli()
	ttl := e.ExpiresAt - e.Timestamp
	if ttl < 0 {
		ttl = 0
	}

	if now > e.Timestamp+staleFactor*ttl {
		c.Remove(ctx, key)
		return nil
	}

	return &port.CacheResult{Data: e.Data, IsStale: now > e.ExpiresAt}
}

// Set stores data under key. Failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := c.now()
	e := entry{
		Data:      data,
		Timestamp: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}

	raw, err := json.Marshal(e)
	if err != nil {
		log.Printf("cache set %q marshal failed: %v", key, err)
		return
	}

	// Redis expiry doubles as the hard horizon, so dead entries vanish even
	// if nobody reads them again.
	if err := c.client.Set(ctx, keyPrefix+key, raw, time.Duration(staleFactor)*ttl).Err(); err != nil {
		log.Printf("cache set %q failed: %v", key, err)
	}
}

func (c *Cache) Remove(ctx context.Context, key string) {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		log.Printf("cache remove %q failed: %v", key, err)
	}
}

// ClearAll deletes every key in this cache's namespace. The version tag and
// anything outside the prefix are left alone.
func (c *Cache) ClearAll(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			log.Printf("cache clear scan failed: %v", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				log.Printf("cache clear delete failed: %v", err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// CheckVersion wipes the namespace when the stored version tag differs from
// the compiled-in Version, then records the current one.
func (c *Cache) CheckVersion(ctx context.Context) {
	current := strconv.Itoa(Version)

	stored, err := c.client.Get(ctx, versionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("cache version check failed: %v", err)
		return
	}
	if stored == current {
		return
	}

	log.Printf("cache version changed (%q -> %q), clearing namespace...", stored, current)
	c.ClearAll(ctx)
	if err := c.client.Set(ctx, versionKey, current, 0).Err(); err != nil {
		log.Printf("cache version write failed: %v", err)
	}
}
