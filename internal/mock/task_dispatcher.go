package mock

import (
	"context"
	"sync"

	"github.com/xaco47/wedding-archive-go/internal/port"
)

// TaskDispatcher records enqueued tasks for tests.
type TaskDispatcher struct {
	mu sync.Mutex

	RefreshListingIDs []string
	WarmCategoryIDs   []string
	WarmTiers         []string

	RefreshErr error
	WarmErr    error
}

var _ port.TaskDispatcher = (*TaskDispatcher)(nil)

func (d *TaskDispatcher) EnqueueRefreshListing(ctx context.Context, categoryID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.RefreshErr != nil {
		return d.RefreshErr
	}
	d.RefreshListingIDs = append(d.RefreshListingIDs, categoryID)
	return nil
}

// RefreshCalls returns a copy of the recorded refresh enqueues, safe to read
// while background goroutines are still enqueueing.
func (d *TaskDispatcher) RefreshCalls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.RefreshListingIDs...)
}

func (d *TaskDispatcher) EnqueueWarmCategory(ctx context.Context, categoryID, tier string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.WarmErr != nil {
		return d.WarmErr
	}
	d.WarmCategoryIDs = append(d.WarmCategoryIDs, categoryID)
	d.WarmTiers = append(d.WarmTiers, tier)
	return nil
}
