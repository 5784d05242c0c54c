package listing

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/port"
)

const cacheKeyPrefix = "r2_category_"

// CacheKey returns the TTL-cache key holding a category's listing.
func CacheKey(categoryID string) string {
	return cacheKeyPrefix + categoryID
}

// Fetcher resolves category listings with stale-while-revalidate semantics:
// a fresh cache hit answers without touching the network, a stale hit answers
// immediately and refreshes in the background, a miss walks the candidate
// sources in priority order. It never returns an error; total failure is an
// empty listing.
type Fetcher struct {
	cache      port.KVCache
	sources    []Source
	ttl        time.Duration
	dispatcher port.TaskDispatcher

	// one in-flight background refresh per category
	refreshing sync.Map
}

func NewFetcher(cache port.KVCache, ttl time.Duration, sources ...Source) *Fetcher {
	return &Fetcher{cache: cache, sources: sources, ttl: ttl}
}

// WithDispatcher routes stale-hit refreshes through the task queue so the
// worker refetches out of band. Without one the fetcher refetches in-process.
func (f *Fetcher) WithDispatcher(d port.TaskDispatcher) *Fetcher {
	f.dispatcher = d
	return f
}

// FetchCategory returns the (normalized) listing for categoryID. The result
// is never nil.
func (f *Fetcher) FetchCategory(ctx context.Context, categoryID string) []FileRecord {
	key := CacheKey(categoryID)

	if res := f.cache.Get(ctx, key); res != nil {
		var recs []FileRecord
		if err := json.Unmarshal(res.Data, &recs); err != nil {
			log.Printf("cached listing for %q is corrupt, refetching: %v", categoryID, err)
		} else {
			if res.IsStale {
				f.refreshInBackground(categoryID)
			}
			if recs == nil {
				recs = []FileRecord{}
			}
			return recs
		}
	}

	recs, ok := f.fetchFromSources(ctx, categoryID)
	if !ok {
		// failure is never cached; the next caller gets another chance
		return []FileRecord{}
	}

	f.store(ctx, categoryID, recs)
	return recs
}

// Refresh bypasses the cache, refetches from the sources and repopulates the
// cache on success. Used by the background worker.
func (f *Fetcher) Refresh(ctx context.Context, categoryID string) bool {
	recs, ok := f.fetchFromSources(ctx, categoryID)
	if !ok {
		return false
	}
	f.store(ctx, categoryID, recs)
	return true
}

func (f *Fetcher) fetchFromSources(ctx context.Context, categoryID string) ([]FileRecord, bool) {
	for _, s := range f.sources {
		if recs, ok := s.Fetch(ctx, categoryID); ok {
			if recs == nil {
				recs = []FileRecord{}
			}
			return recs, true
		}
	}
	return nil, false
}

func (f *Fetcher) store(ctx context.Context, categoryID string, recs []FileRecord) {
	data, err := json.Marshal(recs)
	if err != nil {
		log.Printf("listing for %q marshal failed: %v", categoryID, err)
		return
	}
	f.cache.Set(ctx, CacheKey(categoryID), data, f.ttl)
}

// refreshInBackground kicks off at most one async refetch per category. The
// caller's context is deliberately not inherited: a refresh outliving the
// request that triggered it is the point.
func (f *Fetcher) refreshInBackground(categoryID string) {
	if _, loaded := f.refreshing.LoadOrStore(categoryID, struct{}{}); loaded {
		return
	}

	go func() {
		defer f.refreshing.Delete(categoryID)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if f.dispatcher != nil {
			err := f.dispatcher.EnqueueRefreshListing(ctx, categoryID)
			if err == nil {
				return
			}
			log.Printf("queueing refresh for %q failed, refetching in-process: %v", categoryID, err)
		}

		if !f.Refresh(ctx, categoryID) {
			log.Printf("background refresh for %q failed, keeping stale listing", categoryID)
		}
	}()
}
