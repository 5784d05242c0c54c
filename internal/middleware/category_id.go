package middleware

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/xaco47/wedding-archive-go/internal/appctx"
	"github.com/xaco47/wedding-archive-go/internal/handler/gateway"
)

// Category ids are object-store prefixes; the slug shape keeps path traversal
// and URL-breaking characters out.
var categoryIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func WithCategoryID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "categoryId")
			if id == "" {
				gateway.WriteError(r.Context(), w, http.StatusBadRequest, "Category ID is required", nil)
				return
			}
			if !categoryIDPattern.MatchString(id) {
				gateway.WriteError(r.Context(), w, http.StatusBadRequest, fmt.Sprintf("Category ID %q is not a valid slug", id), nil)
				return
			}

			// stash it in context and call the real handler
			ctx := context.WithValue(r.Context(), appctx.CategoryIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
