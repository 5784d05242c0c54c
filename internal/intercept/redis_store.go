package intercept

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/xaco47/wedding-archive-go/internal/port"
)

// Redis key layout. Payloads and per-bucket insertion-order lists live under
// "sw:", the bucket roster under one set, and control values under "swmeta:"
// so DeleteBucket can never touch them.
const (
	payloadPrefix = "sw:"
	orderPrefix   = "swkeys:"
	bucketSetKey  = "swbuckets"
	metaPrefix    = "swmeta:"
)

// RedisStore is the shared persistent ByteStore. Several gateway processes
// can serve from the same cache namespaces.
type RedisStore struct {
	client *redis.Client
}

var _ port.ByteStore = (*RedisStore)(nil)

func NewRedisStore(addr, password string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &RedisStore{client: rdb}
}

func payloadKey(bucket, key string) string {
	return payloadPrefix + bucket + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, bucket, key string) *port.CachedResponse {
	val, err := s.client.Get(ctx, payloadKey(bucket, key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		log.Printf("byte store get %q failed: %v", key, err)
		return nil
	}

	var resp port.CachedResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		log.Printf("byte store entry %q is corrupt, dropping it: %v", key, err)
		s.Delete(ctx, bucket, key)
		return nil
	}
	return &resp
}

func (s *RedisStore) Put(ctx context.Context, bucket, key string, resp *port.CachedResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		log.Printf("byte store put %q marshal failed: %v", key, err)
		return
	}

	pk := payloadKey(bucket, key)
	existed, err := s.client.Exists(ctx, pk).Result()
	if err != nil {
		log.Printf("byte store put %q failed: %v", key, err)
		return
	}

	if err := s.client.Set(ctx, pk, raw, 0).Err(); err != nil {
		log.Printf("byte store put %q failed: %v", key, err)
		return
	}

	// first insert of a key records it in the FIFO order list
	if existed == 0 {
		if err := s.client.RPush(ctx, orderPrefix+bucket, key).Err(); err != nil {
			log.Printf("byte store order push %q failed: %v", key, err)
		}
	}
	if err := s.client.SAdd(ctx, bucketSetKey, bucket).Err(); err != nil {
		log.Printf("byte store bucket roster add %q failed: %v", bucket, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, bucket, key string) {
	if err := s.client.Del(ctx, payloadKey(bucket, key)).Err(); err != nil {
		log.Printf("byte store delete %q failed: %v", key, err)
	}
	if err := s.client.LRem(ctx, orderPrefix+bucket, 0, key).Err(); err != nil {
		log.Printf("byte store order trim %q failed: %v", key, err)
	}
}

func (s *RedisStore) Keys(ctx context.Context, bucket string) []string {
	keys, err := s.client.LRange(ctx, orderPrefix+bucket, 0, -1).Result()
	if err != nil {
		log.Printf("byte store keys %q failed: %v", bucket, err)
		return nil
	}
	return keys
}

func (s *RedisStore) Buckets(ctx context.Context) []string {
	buckets, err := s.client.SMembers(ctx, bucketSetKey).Result()
	if err != nil {
		log.Printf("byte store bucket roster failed: %v", err)
		return nil
	}
	return buckets
}

func (s *RedisStore) DeleteBucket(ctx context.Context, bucket string) {
	for _, key := range s.Keys(ctx, bucket) {
		if err := s.client.Del(ctx, payloadKey(bucket, key)).Err(); err != nil {
			log.Printf("byte store delete %q failed: %v", key, err)
		}
	}
	if err := s.client.Del(ctx, orderPrefix+bucket).Err(); err != nil {
		log.Printf("byte store order delete %q failed: %v", bucket, err)
	}
	if err := s.client.SRem(ctx, bucketSetKey, bucket).Err(); err != nil {
		log.Printf("byte store bucket roster remove %q failed: %v", bucket, err)
	}
}

func (s *RedisStore) Meta(ctx context.Context, key string) string {
	val, err := s.client.Get(ctx, metaPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return ""
	}
	if err != nil {
		log.Printf("byte store meta get %q failed: %v", key, err)
		return ""
	}
	return val
}

func (s *RedisStore) SetMeta(ctx context.Context, key, value string) {
	if err := s.client.Set(ctx, metaPrefix+key, value, 0).Err(); err != nil {
		log.Printf("byte store meta set %q failed: %v", key, err)
	}
}
