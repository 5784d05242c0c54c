package intercept

import (
	"context"
	"sort"
	"sync"

	"github.com/xaco47/wedding-archive-go/internal/port"
)

// MemoryStore is a process-local ByteStore for tests and Redis-less
// deployments. Insertion order is tracked per bucket for FIFO eviction.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*memBucket
	meta    map[string]string
}

type memBucket struct {
	entries map[string]*port.CachedResponse
	order   []string
}

var _ port.ByteStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*memBucket),
		meta:    make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, bucket, key string) *port.CachedResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket]
	if !ok {
		return nil
	}
	return b.entries[key]
}

func (s *MemoryStore) Put(_ context.Context, bucket, key string, resp *port.CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket]
	if !ok {
		b = &memBucket{entries: make(map[string]*port.CachedResponse)}
		s.buckets[bucket] = b
	}
	// replacing an entry keeps its original position in the order
	if _, exists := b.entries[key]; !exists {
		b.order = append(b.order, key)
	}
	b.entries[key] = resp
}

func (s *MemoryStore) Delete(_ context.Context, bucket, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket]
	if !ok {
		return
	}
	if _, exists := b.entries[key]; !exists {
		return
	}
	delete(b.entries, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func (s *MemoryStore) Keys(_ context.Context, bucket string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket]
	if !ok {
		return nil
	}
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

func (s *MemoryStore) Buckets(_ context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *MemoryStore) DeleteBucket(_ context.Context, bucket string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, bucket)
}

func (s *MemoryStore) Meta(_ context.Context, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta[key]
}

func (s *MemoryStore) SetMeta(_ context.Context, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[key] = value
}
