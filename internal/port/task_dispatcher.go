package port

import "context"

// TaskDispatcher enqueues asynchronous tasks related to listing refresh and
// cache warming.
type TaskDispatcher interface {
	EnqueueRefreshListing(ctx context.Context, categoryID string) error
	EnqueueWarmCategory(ctx context.Context, categoryID, tier string) error
}
