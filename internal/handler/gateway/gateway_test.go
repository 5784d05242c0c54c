package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	xwebp "golang.org/x/image/webp"

	"github.com/xaco47/wedding-archive-go/internal/appctx"
	"github.com/xaco47/wedding-archive-go/internal/imgurl"
	"github.com/xaco47/wedding-archive-go/internal/listing"
	"github.com/xaco47/wedding-archive-go/internal/mock"
	"github.com/xaco47/wedding-archive-go/internal/resize"
)

type stubLister struct {
	recs   []listing.FileRecord
	gotIDs []string
}

func (s *stubLister) FetchCategory(_ context.Context, categoryID string) []listing.FileRecord {
	s.gotIDs = append(s.gotIDs, categoryID)
	return s.recs
}

func withCategory(req *http.Request, id string) *http.Request {
	ctx := context.WithValue(req.Context(), appctx.CategoryIDKey, id)
	return req.WithContext(ctx)
}

func TestGetCategoryHandler(t *testing.T) {
	res := imgurl.NewResolver("https://pub-abc.r2.dev")
	lister := &stubLister{recs: []listing.FileRecord{
		{Name: "IMG_01.jpeg", Key: "dugun/IMG_01.jpeg"},
		{Name: "clip.mp4", Key: "dugun/clip.mp4"},
	}}
	h := GetCategoryHandler(lister, res)

	req := withCategory(httptest.NewRequest(http.MethodGet, "/api/categories/dugun", nil), "dugun")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("no ETag on listing response")
	}

	var out CategoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.CategoryID != "dugun" || len(out.Items) != 2 {
		t.Fatalf("response = %+v; want 2 items for dugun", out)
	}
	if out.Items[0].Thumbnails.Medium == "" || out.Items[0].OriginalURL == "" {
		t.Error("tier URLs not resolved server-side")
	}

	// a second conditional request short-circuits on the ETag
	etag := rec.Header().Get("ETag")
	req2 := withCategory(httptest.NewRequest(http.MethodGet, "/api/categories/dugun", nil), "dugun")
	req2.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusNotModified {
		t.Errorf("status = %d; want 304 for a matching ETag", rec2.Code)
	}
}

func TestGetCategoryHandler_MissingID(t *testing.T) {
	h := GetCategoryHandler(&stubLister{}, imgurl.NewResolver("https://pub-abc.r2.dev"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories/", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400 without a category in context", rec.Code)
	}
}

func TestWarmCategoryHandler(t *testing.T) {
	dispatcher := &mock.TaskDispatcher{}
	h := WarmCategoryHandler(dispatcher)

	req := withCategory(httptest.NewRequest(http.MethodPost, "/api/categories/dugun/warm?tier=preview", nil), "dugun")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d; want 202, body %s", rec.Code, rec.Body.String())
	}
	if len(dispatcher.WarmCategoryIDs) != 1 || dispatcher.WarmCategoryIDs[0] != "dugun" {
		t.Errorf("enqueued = %v; want [dugun]", dispatcher.WarmCategoryIDs)
	}
	if len(dispatcher.WarmTiers) != 1 || dispatcher.WarmTiers[0] != "preview" {
		t.Errorf("tiers = %v; want [preview]", dispatcher.WarmTiers)
	}
}

func TestWarmCategoryHandler_UnknownTierFallsBackToMedium(t *testing.T) {
	dispatcher := &mock.TaskDispatcher{}
	h := WarmCategoryHandler(dispatcher)

	req := withCategory(httptest.NewRequest(http.MethodPost, "/api/categories/dugun/warm?tier=gigantic", nil), "dugun")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d; want 202", rec.Code)
	}
	if len(dispatcher.WarmTiers) != 1 || dispatcher.WarmTiers[0] != "medium" {
		t.Errorf("tiers = %v; want [medium]", dispatcher.WarmTiers)
	}
}

func TestWarmCategoryHandler_BodyTier(t *testing.T) {
	dispatcher := &mock.TaskDispatcher{}
	h := WarmCategoryHandler(dispatcher)

	body := strings.NewReader(`{"tier": "full"}`)
	req := withCategory(httptest.NewRequest(http.MethodPost, "/api/categories/dugun/warm", body), "dugun")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d; want 202, body %s", rec.Code, rec.Body.String())
	}
	if len(dispatcher.WarmTiers) != 1 || dispatcher.WarmTiers[0] != "full" {
		t.Errorf("tiers = %v; want [full]", dispatcher.WarmTiers)
	}
}

func TestWarmCategoryHandler_BodyUnknownTierRejected(t *testing.T) {
	dispatcher := &mock.TaskDispatcher{}
	h := WarmCategoryHandler(dispatcher)

	body := strings.NewReader(`{"tier": "gigantic"}`)
	req := withCategory(httptest.NewRequest(http.MethodPost, "/api/categories/dugun/warm", body), "dugun")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400 for an unknown tier in the body", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"tier":"oneof"`) {
		t.Errorf("body = %s; want the validation details", rec.Body.String())
	}
	if len(dispatcher.WarmTiers) != 0 {
		t.Error("task enqueued despite a rejected payload")
	}
}

func TestWarmCategoryHandler_MalformedBody(t *testing.T) {
	dispatcher := &mock.TaskDispatcher{}
	h := WarmCategoryHandler(dispatcher)

	body := strings.NewReader(`{not json`)
	req := withCategory(httptest.NewRequest(http.MethodPost, "/api/categories/dugun/warm", body), "dugun")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400 for a malformed body", rec.Code)
	}
}

func TestWarmCategoryHandler_QueueDown(t *testing.T) {
	dispatcher := &mock.TaskDispatcher{WarmErr: errors.New("redis gone")}
	h := WarmCategoryHandler(dispatcher)

	req := withCategory(httptest.NewRequest(http.MethodPost, "/api/categories/dugun/warm", nil), "dugun")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500 when the queue is down", rec.Code)
	}
}

// ridRecordingHandler collects the request id resolved from each log call's
// context.
type ridRecordingHandler struct{ rids *[]string }

func (h ridRecordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h ridRecordingHandler) Handle(ctx context.Context, _ slog.Record) error {
	if rid, ok := appctx.RequestIDFromContext(ctx); ok {
		*h.rids = append(*h.rids, rid)
	}
	return nil
}
func (h ridRecordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h ridRecordingHandler) WithGroup(string) slog.Handler      { return h }

func TestWriteError_LogsWithRequestContext(t *testing.T) {
	var rids []string
	prev := slog.Default()
	slog.SetDefault(slog.New(ridRecordingHandler{rids: &rids}))
	defer slog.SetDefault(prev)

	ctx := context.WithValue(context.Background(), appctx.RequestIDKey, "req-123")
	rec := httptest.NewRecorder()
	WriteError(ctx, rec, http.StatusBadRequest, "boom", errors.New("kaput"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
	if len(rids) == 0 || rids[0] != "req-123" {
		t.Errorf("error log saw request ids %v; want [req-123]", rids)
	}
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 99, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func resizeRouter(strg *mock.Storage) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/img/*", ResizeImageHandler(strg, resize.NewResizer(resize.NewWebPEncoder()), "medias"))
	return r
}

func TestResizeImageHandler_ResizesToWidth(t *testing.T) {
	strg := mock.NewStorage()
	strg.Put("medias", "dugun/IMG_01.jpeg", jpegBytes(t, 100, 80), "image/jpeg")
	r := resizeRouter(strg)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/img/dugun/IMG_01.jpeg?w=50&q=40", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Resized") != "true" {
		t.Error("X-Resized header missing or false")
	}
	if rec.Header().Get("Cache-Control") != immutableCache {
		t.Errorf("cache-control = %q; want immutable", rec.Header().Get("Cache-Control"))
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}

	img, err := xwebp.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not WebP: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 40 {
		t.Errorf("resized to %dx%d; want 50x40", b.Dx(), b.Dy())
	}
}

func TestResizeImageHandler_NoWidthProxiesOriginal(t *testing.T) {
	strg := mock.NewStorage()
	original := jpegBytes(t, 40, 30)
	strg.Put("medias", "dugun/IMG_01.jpeg", original, "image/jpeg")
	r := resizeRouter(strg)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/img/dugun/IMG_01.jpeg", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/jpeg" {
		t.Errorf("content-type = %q; want the original's", rec.Header().Get("Content-Type"))
	}
	if !bytes.Equal(rec.Body.Bytes(), original) {
		t.Error("proxied body differs from the original object")
	}
}

func TestResizeImageHandler_UndecodableFallsBackToOriginal(t *testing.T) {
	strg := mock.NewStorage()
	original := []byte("definitely not an image")
	strg.Put("medias", "dugun/notes.txt", original, "text/plain")
	r := resizeRouter(strg)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/img/dugun/notes.txt?w=50", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 fallback", rec.Code)
	}
	if rec.Header().Get("X-Resized") != "false" {
		t.Error("fallback not flagged with X-Resized: false")
	}
	if !bytes.Equal(rec.Body.Bytes(), original) {
		t.Error("fallback body differs from the original object")
	}
}

func TestResizeImageHandler_NotFound(t *testing.T) {
	r := resizeRouter(mock.NewStorage())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/img/missing.jpeg?w=50", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", rec.Code)
	}
}
