package gateway

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/xaco47/wedding-archive-go/internal/appctx"
	"github.com/xaco47/wedding-archive-go/internal/imgurl"
	"github.com/xaco47/wedding-archive-go/internal/port"
	"github.com/xaco47/wedding-archive-go/internal/validation"
)

// WarmRequest is the optional request body. A tier named here must be a real
// preset; the ?tier= query hint stays lenient and falls back to medium.
type WarmRequest struct {
	Tier string `json:"tier" validate:"omitempty,oneof=placeholder thumb medium preview full"`
}

type WarmCategoryResponse struct {
	Status     string `json:"status"`
	CategoryID string `json:"category_id"`
	Tier       string `json:"tier"`
}

// WarmCategoryHandler queues a background prefetch of a whole category into
// the image byte cache.
func WarmCategoryHandler(dispatcher port.TaskDispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, ok := appctx.CategoryIDFromContext(r.Context())
		if !ok {
			WriteError(r.Context(), w, http.StatusBadRequest, "Category ID is required", nil)
			return
		}

		tier := imgurl.ByName(r.URL.Query().Get("tier")).Name

		var req WarmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			WriteError(r.Context(), w, http.StatusBadRequest, "Invalid request payload", err)
			return
		}
		if errs := validation.ValidateStruct(req); errs != nil {
			errsJSON, err := validation.ErrorsToJson(errs)
			if err != nil {
				WriteError(r.Context(), w, http.StatusInternalServerError, "Failed to encode validation errors", err)
				return
			}
			RespondRawJSON(r.Context(), w, http.StatusBadRequest, []byte(errsJSON))
			log.Printf("❌  Validation failed: %s", errsJSON)
			return
		}
		if req.Tier != "" {
			tier = req.Tier
		}

		if err := dispatcher.EnqueueWarmCategory(r.Context(), categoryID, tier); err != nil {
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not queue category warm-up", err)
			return
		}

		RespondJSON(r.Context(), w, http.StatusAccepted, WarmCategoryResponse{
			Status:     "queued",
			CategoryID: categoryID,
			Tier:       tier,
		})
		log.Printf("✅  Queued %s-tier warm-up for category %q", tier, categoryID)
	}
}
