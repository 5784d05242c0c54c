package listing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/mock"
)

// stubSource returns canned records and counts calls.
type stubSource struct {
	recs  []FileRecord
	ok    bool
	calls atomic.Int32

	mu      sync.Mutex
	waiters []chan struct{}
}

func (s *stubSource) Fetch(ctx context.Context, categoryID string) ([]FileRecord, bool) {
	s.calls.Add(1)
	s.mu.Lock()
	for _, w := range s.waiters {
		close(w)
	}
	s.waiters = nil
	s.mu.Unlock()
	return s.recs, s.ok
}

// notifyNextFetch returns a channel closed on the next Fetch call.
func (s *stubSource) notifyNextFetch() <-chan struct{} {
	ch := make(chan struct{})
	s.mu.Lock()
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()
	return ch
}

func someRecords() []FileRecord {
	return []FileRecord{
		{ID: "1", Name: "IMG_01.jpeg", Key: "dugun/IMG_01.jpeg"},
		{ID: "2", Name: "IMG_02.jpeg", Key: "dugun/IMG_02.jpeg"},
		{ID: "3", Name: "IMG_03.jpeg", Key: "dugun/IMG_03.jpeg"},
	}
}

func TestFetchCategory_ColdFetchPopulatesCache(t *testing.T) {
	ca := mock.NewKVCache()
	src := &stubSource{recs: someRecords(), ok: true}
	f := NewFetcher(ca, 20*time.Minute, src)

	got := f.FetchCategory(context.Background(), "dugun")
	if len(got) != 3 {
		t.Fatalf("got %d records; want 3", len(got))
	}
	if src.calls.Load() != 1 {
		t.Errorf("source called %d times; want 1", src.calls.Load())
	}

	// cache must now hold the same records, fresh
	res := ca.Get(context.Background(), CacheKey("dugun"))
	if res == nil {
		t.Fatal("listing was not cached")
	}
	if res.IsStale {
		t.Error("freshly cached listing reported stale")
	}
	var cached []FileRecord
	if err := json.Unmarshal(res.Data, &cached); err != nil {
		t.Fatalf("cached payload unreadable: %v", err)
	}
	if len(cached) != 3 || cached[0].Key != "dugun/IMG_01.jpeg" {
		t.Errorf("cached payload mismatch: %+v", cached)
	}
	if ttl := ca.SetTTLs[CacheKey("dugun")]; ttl != 20*time.Minute {
		t.Errorf("cached with ttl %v; want 20m", ttl)
	}
}

func TestFetchCategory_FreshHitSkipsNetwork(t *testing.T) {
	ca := mock.NewKVCache()
	data, _ := json.Marshal(someRecords())
	ca.Seed(CacheKey("dugun"), data, false)

	src := &stubSource{recs: nil, ok: false}
	f := NewFetcher(ca, time.Minute, src)

	got := f.FetchCategory(context.Background(), "dugun")
	if len(got) != 3 {
		t.Fatalf("got %d records; want 3", len(got))
	}
	if src.calls.Load() != 0 {
		t.Errorf("source called %d times on a fresh hit; want 0", src.calls.Load())
	}
}

func TestFetchCategory_StaleHitReturnsAndRefetchesOnce(t *testing.T) {
	ca := mock.NewKVCache()
	old := []FileRecord{{ID: "1", Name: "old.jpeg", Key: "dugun/old.jpeg"}}
	data, _ := json.Marshal(old)
	ca.Seed(CacheKey("dugun"), data, true)

	src := &stubSource{recs: someRecords(), ok: true}
	f := NewFetcher(ca, time.Minute, src)

	done := src.notifyNextFetch()

	// stale data comes back synchronously, untouched
	got := f.FetchCategory(context.Background(), "dugun")
	if len(got) != 1 || got[0].Name != "old.jpeg" {
		t.Fatalf("stale read returned %+v; want the old record", got)
	}

	// the background refetch runs exactly once and repopulates the cache
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background refetch never ran")
	}
	deadline := time.Now().Add(2 * time.Second)
	for ca.SetCount(CacheKey("dugun")) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := ca.SetCount(CacheKey("dugun")); n != 1 {
		t.Errorf("cache written %d times by the refresh; want 1", n)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("source called %d times; want exactly 1 background refetch", n)
	}
}

func TestFetchCategory_StaleHitEnqueuesRefreshTask(t *testing.T) {
	ca := mock.NewKVCache()
	old := []FileRecord{{ID: "1", Name: "old.jpeg", Key: "dugun/old.jpeg"}}
	data, _ := json.Marshal(old)
	ca.Seed(CacheKey("dugun"), data, true)

	src := &stubSource{recs: someRecords(), ok: true}
	dispatcher := &mock.TaskDispatcher{}
	f := NewFetcher(ca, time.Minute, src).WithDispatcher(dispatcher)

	got := f.FetchCategory(context.Background(), "dugun")
	if len(got) != 1 || got[0].Name != "old.jpeg" {
		t.Fatalf("stale read returned %+v; want the old record", got)
	}

	// the refresh lands on the queue instead of hitting the sources here
	deadline := time.Now().Add(2 * time.Second)
	for len(dispatcher.RefreshCalls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if calls := dispatcher.RefreshCalls(); len(calls) != 1 || calls[0] != "dugun" {
		t.Errorf("enqueued refreshes = %v; want [dugun]", calls)
	}
	if src.calls.Load() != 0 {
		t.Errorf("source called %d times; the worker owns the refetch", src.calls.Load())
	}
}

func TestFetchCategory_EnqueueFailureFallsBackInProcess(t *testing.T) {
	ca := mock.NewKVCache()
	old := []FileRecord{{ID: "1", Name: "old.jpeg", Key: "dugun/old.jpeg"}}
	data, _ := json.Marshal(old)
	ca.Seed(CacheKey("dugun"), data, true)

	src := &stubSource{recs: someRecords(), ok: true}
	dispatcher := &mock.TaskDispatcher{RefreshErr: errors.New("redis gone")}
	f := NewFetcher(ca, time.Minute, src).WithDispatcher(dispatcher)

	done := src.notifyNextFetch()
	f.FetchCategory(context.Background(), "dugun")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("in-process fallback refetch never ran")
	}
}

func TestFetchCategory_TotalFailureIsEmptyAndUncached(t *testing.T) {
	ca := mock.NewKVCache()
	src1 := &stubSource{ok: false}
	src2 := &stubSource{ok: false}
	f := NewFetcher(ca, time.Minute, src1, src2)

	got := f.FetchCategory(context.Background(), "dugun")
	if got == nil {
		t.Fatal("result must be non-nil")
	}
	if len(got) != 0 {
		t.Errorf("got %d records on total failure; want 0", len(got))
	}
	// both candidates tried, in order
	if src1.calls.Load() != 1 || src2.calls.Load() != 1 {
		t.Errorf("sources called %d/%d times; want 1/1", src1.calls.Load(), src2.calls.Load())
	}
	// a failure is never cached
	if len(ca.SetKeys) != 0 {
		t.Errorf("failure was cached: %v", ca.SetKeys)
	}
}

func TestFetchCategory_EmptyListingIsCacheable(t *testing.T) {
	ca := mock.NewKVCache()
	src := &stubSource{recs: []FileRecord{}, ok: true}
	f := NewFetcher(ca, time.Minute, src)

	got := f.FetchCategory(context.Background(), "henuz-yok")
	if got == nil || len(got) != 0 {
		t.Fatalf("got %v; want empty non-nil listing", got)
	}
	if ca.SetCount(CacheKey("henuz-yok")) != 1 {
		t.Error("a well-formed empty listing must be cached")
	}
}

func TestFetchCategory_FirstSourceWins(t *testing.T) {
	ca := mock.NewKVCache()
	src1 := &stubSource{recs: someRecords(), ok: true}
	src2 := &stubSource{recs: []FileRecord{{ID: "x", Name: "x", Key: "x"}}, ok: true}
	f := NewFetcher(ca, time.Minute, src1, src2)

	got := f.FetchCategory(context.Background(), "dugun")
	if len(got) != 3 {
		t.Fatalf("got %d records; want the first source's 3", len(got))
	}
	if src2.calls.Load() != 0 {
		t.Error("second source consulted although the first answered")
	}
}
