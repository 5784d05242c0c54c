package middleware

import (
	"context"
	"net/http"

	guuid "github.com/google/uuid"

	"github.com/xaco47/wedding-archive-go/internal/appctx"
)

// WithRequestID tags every request with an id that the logger picks up from
// the context. Inbound X-Request-ID headers are honored so ids survive
// proxies.
func WithRequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = guuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)

			ctx := context.WithValue(r.Context(), appctx.RequestIDKey, rid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
