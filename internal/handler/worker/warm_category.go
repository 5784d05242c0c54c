package worker

import (
	"context"
	"log"

	"github.com/xaco47/wedding-archive-go/internal/imgurl"
	"github.com/xaco47/wedding-archive-go/internal/intercept"
	"github.com/xaco47/wedding-archive-go/internal/listing"
	"github.com/xaco47/wedding-archive-go/internal/media"
	"github.com/xaco47/wedding-archive-go/internal/task"
	"github.com/xaco47/wedding-archive-go/internal/validation"
)

// CategoryLister resolves the file listing of one category.
type CategoryLister interface {
	FetchCategory(ctx context.Context, categoryID string) []listing.FileRecord
}

// ImagePrefetcher accepts interception-layer control commands.
type ImagePrefetcher interface {
	Handle(ctx context.Context, cmd intercept.Command)
}

// WarmCategoryHandler handles a warm-category task: it resolves one tier URL
// per photo of the category and pushes the batch into the image byte cache.
func WarmCategoryHandler(ctx context.Context, p task.WarmCategoryPayload, lister CategoryLister, res *imgurl.Resolver, pf ImagePrefetcher) error {
	if err := validation.ValidateStruct(p); err != nil {
		log.Printf("❌  Payload validation failed: %v", err)
		return err
	}

	preset := imgurl.ByName(p.Tier)
	recs := lister.FetchCategory(ctx, p.CategoryID)

	urls := make([]string, 0, len(recs))
	for _, rec := range recs {
		// videos stream on demand; only photos are worth pre-warming
		if media.TypeOf(rec.Name) != media.TypePhoto {
			continue
		}
		urls = append(urls, res.Resolve(rec.Key, preset))
	}
	if len(urls) == 0 {
		log.Printf("✅  Nothing to warm for category %q", p.CategoryID)
		return nil
	}

	pf.Handle(ctx, intercept.Command{Kind: intercept.CommandPrefetchImages, URLs: urls})
	log.Printf("✅  Warmed %d %s-tier images for category %q", len(urls), preset.Name, p.CategoryID)
	return nil
}
