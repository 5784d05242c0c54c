package task

import (
	"context"

	"github.com/xaco47/wedding-archive-go/internal/port"
)

// NoopDispatcher swallows enqueues; used when no queue backend is configured.
type NoopDispatcher struct{}

var _ port.TaskDispatcher = (*NoopDispatcher)(nil)

func NewNoopDispatcher() *NoopDispatcher { return &NoopDispatcher{} }

func (d *NoopDispatcher) EnqueueRefreshListing(ctx context.Context, categoryID string) error {
	return nil
}

func (d *NoopDispatcher) EnqueueWarmCategory(ctx context.Context, categoryID, tier string) error {
	return nil
}
