package worker

import (
	"context"
	"fmt"
	"log"

	"github.com/xaco47/wedding-archive-go/internal/task"
	"github.com/xaco47/wedding-archive-go/internal/validation"
)

// ListingRefresher refetches a category listing from its sources, bypassing
// the TTL cache.
type ListingRefresher interface {
	Refresh(ctx context.Context, categoryID string) bool
}

// RefreshListingHandler handles a refresh-listing task.
// It validates the incoming payload and delegates the call to the service.
func RefreshListingHandler(ctx context.Context, p task.RefreshListingPayload, svc ListingRefresher) error {
	if err := validation.ValidateStruct(p); err != nil {
		log.Printf("❌  Payload validation failed: %v", err)
		return err
	}

	if !svc.Refresh(ctx, p.CategoryID) {
		err := fmt.Errorf("no listing source answered for category %q", p.CategoryID)
		log.Printf("❌  Failed to refresh listing: %v", err)
		return err
	}

	log.Printf("✅  Successfully refreshed listing for category %q", p.CategoryID)
	return nil
}
