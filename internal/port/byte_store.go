package port

import (
	"context"
	"net/http"
	"time"
)

// CachedResponse is one stored HTTP response: enough to replay it without
// touching the network, plus the fetch timestamp driving revalidation.
type CachedResponse struct {
	Status    int
	Header    http.Header
	Body      []byte
	FetchedAt time.Time
}

// ByteStore persists response payloads for the interception layer, organised
// into named cache buckets so whole namespaces can be dropped at once.
// Implementations swallow their own backend errors; a failed read is a miss
// and a failed write is a no-op.
type ByteStore interface {
	// Get returns the stored response for key in the named bucket, nil on miss.
	Get(ctx context.Context, bucket, key string) *CachedResponse
	Put(ctx context.Context, bucket, key string, resp *CachedResponse)
	Delete(ctx context.Context, bucket, key string)
	// Keys lists a bucket's keys in insertion order, oldest first.
	Keys(ctx context.Context, bucket string) []string
	// Buckets lists every bucket currently holding entries.
	Buckets(ctx context.Context) []string
	DeleteBucket(ctx context.Context, bucket string)
	// Meta reads a small control value persisted outside every bucket, so it
	// survives DeleteBucket. Empty string on miss.
	Meta(ctx context.Context, key string) string
	SetMeta(ctx context.Context, key, value string)
}
