package gateway

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xaco47/wedding-archive-go/internal/imgurl"
	"github.com/xaco47/wedding-archive-go/internal/port"
	"github.com/xaco47/wedding-archive-go/internal/resize"
	"github.com/xaco47/wedding-archive-go/internal/storage"
)

// immutableCache suits resized payloads: a key+params pair always yields the
// same bytes, so clients and the interception layer may cache for a year.
const immutableCache = "public, max-age=31536000, immutable"

// ResizeImageHandler serves `/img/{key}?w=&q=&fit=`: the original object
// scaled to a width tier and re-encoded as WebP. Without `w` it proxies the
// original unchanged. Any decode or scaling failure falls back to the
// original bytes instead of erroring, flagged via the X-Resized header.
func ResizeImageHandler(strg port.Storage, rz *resize.Resizer, bucket string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := url.PathUnescape(chi.URLParam(r, "*"))
		if err != nil || key == "" {
			WriteError(r.Context(), w, http.StatusBadRequest, "Image key is required", err)
			return
		}

		info, err := strg.StatFile(r.Context(), bucket, key)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				WriteError(r.Context(), w, http.StatusNotFound, "Image not found", nil)
				return
			}
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not stat image", err)
			return
		}

		reader, err := strg.GetFile(r.Context(), bucket, key)
		if err != nil {
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not read image", err)
			return
		}
		defer func() {
			if err := reader.Close(); err != nil {
				log.Printf("failed to close reader for %q: %v", key, err)
			}
		}()

		w.Header().Set("Cache-Control", immutableCache)
		w.Header().Set("Access-Control-Allow-Origin", "*")

		width, _ := strconv.Atoi(r.URL.Query().Get("w"))
		if width <= 0 {
			// plain proxy of the original
			w.Header().Set("Content-Type", info.ContentType)
			if _, err := io.Copy(w, reader); err != nil {
				log.Printf("❌  Failed streaming original %q: %v", key, err)
			}
			return
		}

		quality, _ := strconv.Atoi(r.URL.Query().Get("q"))
		fit := parseFit(r.URL.Query().Get("fit"))

		out, err := rz.Resize(reader, width, quality, fit)
		if err != nil {
			log.Printf("❌  Resize of %q failed, serving original: %v", key, err)
			serveOriginalFallback(r.Context(), w, reader, info, key)
			return
		}

		w.Header().Set("Content-Type", resize.ContentType)
		w.Header().Set("X-Resized", "true")
		if _, err := w.Write(out); err != nil {
			log.Printf("❌  Failed writing resized %q: %v", key, err)
		}
	}
}

func serveOriginalFallback(ctx context.Context, w http.ResponseWriter, reader io.ReadSeeker, info port.FileInfo, key string) {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		WriteError(ctx, w, http.StatusInternalServerError, "Could not rewind image", err)
		return
	}
	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("X-Resized", "false")
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("❌  Failed streaming fallback %q: %v", key, err)
	}
}

func parseFit(s string) imgurl.Fit {
	switch imgurl.Fit(s) {
	case imgurl.FitCover:
		return imgurl.FitCover
	case imgurl.FitContain:
		return imgurl.FitContain
	default:
		return imgurl.FitScaleDown
	}
}
