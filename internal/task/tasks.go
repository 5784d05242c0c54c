package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeRefreshListing = "listing:refresh"
	TypeWarmCategory   = "images:warm"
)

type RefreshListingPayload struct {
	CategoryID string `json:"category_id" validate:"required"`
}

type WarmCategoryPayload struct {
	CategoryID string `json:"category_id" validate:"required"`
	Tier       string `json:"tier" validate:"required"`
}

// NewRefreshListingTask creates an Asynq task refreshing one category's
// cached listing.
func NewRefreshListingTask(categoryID string) (*asynq.Task, error) {
	p := RefreshListingPayload{CategoryID: categoryID}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal refresh-listing payload: %w", err)
	}
	return asynq.NewTask(TypeRefreshListing, data), nil
}

// ParseRefreshListingPayload parses the task payload to RefreshListingPayload.
func ParseRefreshListingPayload(t *asynq.Task) (RefreshListingPayload, error) {
	var p RefreshListingPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return RefreshListingPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	return p, nil
}

// NewWarmCategoryTask creates an Asynq task prefetching one tier of a
// category's images into the byte cache.
func NewWarmCategoryTask(categoryID, tier string) (*asynq.Task, error) {
	p := WarmCategoryPayload{CategoryID: categoryID, Tier: tier}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal warm-category payload: %w", err)
	}
	return asynq.NewTask(TypeWarmCategory, data), nil
}

// ParseWarmCategoryPayload parses the task payload to WarmCategoryPayload.
func ParseWarmCategoryPayload(t *asynq.Task) (WarmCategoryPayload, error) {
	var p WarmCategoryPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return WarmCategoryPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	return p, nil
}
