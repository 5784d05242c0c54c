package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"log"
	"net/http"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/appctx"
	"github.com/xaco47/wedding-archive-go/internal/imgurl"
	"github.com/xaco47/wedding-archive-go/internal/listing"
	"github.com/xaco47/wedding-archive-go/internal/media"
)

// CategoryLister resolves the file listing of one category.
type CategoryLister interface {
	FetchCategory(ctx context.Context, categoryID string) []listing.FileRecord
}

type CategoryResponse struct {
	CategoryID string             `json:"category_id"`
	Items      []media.Descriptor `json:"items"`
}

// GetCategoryHandler serves a category's media descriptors with every tier
// URL resolved server-side.
func GetCategoryHandler(lister CategoryLister, res *imgurl.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, ok := appctx.CategoryIDFromContext(r.Context())
		if !ok {
			WriteError(r.Context(), w, http.StatusBadRequest, "Category ID is required", nil)
			return
		}

		recs := lister.FetchCategory(r.Context(), categoryID)
		out := CategoryResponse{
			CategoryID: categoryID,
			Items:      media.FromRecords(categoryID, recs, res, time.Now()),
		}

		raw, err := json.Marshal(out)
		if err != nil {
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not render category listing", err)
			return
		}

		etag := fmt.Sprintf("\"%08x\"", crc32.ChecksumIEEE(raw))
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=300")
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			log.Printf("✅  Returning cached listing for category %q", categoryID)
			return
		}

		RespondRawJSON(r.Context(), w, http.StatusOK, raw)
		log.Printf("✅  Successfully returned %d items for category %q", len(out.Items), categoryID)
	}
}
