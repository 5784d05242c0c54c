package intercept

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/port"
)

// MaxCachedImages bounds the image bucket. Writes past the limit evict the
// oldest entries by insertion order (FIFO; the store tracks no access times).
const MaxCachedImages = 500

// RevalidateAfter is the freshness window for cached images: older entries
// are still served instantly, with a background refetch replacing them.
const RevalidateAfter = time.Hour

// UpdateCheckInterval paces the periodic lookup for a newer deployment.
const UpdateCheckInterval = time.Hour

// imagePurgeVersion gates a one-time forced purge of the image bucket when
// the caching layout changes incompatibly. Persisted via store metadata so a
// plain cache clear does not reset it.
const imagePurgeVersion = 2

const purgeVersionKey = "image_purge_version"

// Cache bucket namespaces. Superseded namespaces from older deployments are
// dropped on activation.
const (
	appBucket     = "app-v2"
	runtimeBucket = "runtime-v2"
	imageBucket   = "images-v2"
)

func currentBuckets() map[string]bool {
	return map[string]bool{appBucket: true, runtimeBucket: true, imageBucket: true}
}

// Phase is the interceptor's lifecycle position.
type Phase int

const (
	// PhaseNew: constructed, nothing precached.
	PhaseNew Phase = iota
	// PhaseInstalled: shell precached, waiting for activation.
	PhaseInstalled
	// PhaseActive: serving intercepted requests.
	PhaseActive
	// PhaseSuperseded: a newer deployment took over; pass-through only.
	PhaseSuperseded
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseInstalled:
		return "installed"
	case PhaseActive:
		return "active"
	case PhaseSuperseded:
		return "superseded"
	}
	return "unknown"
}

// CommandKind enumerates the control commands.
type CommandKind int

const (
	// CommandSkipWaiting activates an installed interceptor immediately.
	CommandSkipWaiting CommandKind = iota
	// CommandClearCache drops every cache bucket.
	CommandClearCache
	// CommandClearImageCache drops only the image bucket.
	CommandClearImageCache
	// CommandPrefetchImages eagerly warms the image bucket for a URL batch.
	CommandPrefetchImages
)

// Command is one control message.
type Command struct {
	Kind CommandKind
	URLs []string
}

// Options configures an Interceptor.
type Options struct {
	Store port.ByteStore

	// Next handles the actual network traffic. Defaults to
	// http.DefaultTransport.
	Next http.RoundTripper

	// Origin is the application's own origin, scheme and host, e.g.
	// "https://archive.example.com". Same-origin rules key off its host.
	Origin string

	// OfflineShell is the path served when a navigation request fails with
	// nothing cached for it.
	OfflineShell string

	// PrecachePaths are fetched and cached during Install. Defaults to the
	// root and the offline shell.
	PrecachePaths []string

	// OnUpdateCheck, when set, runs at most once per UpdateCheckInterval
	// while serving. It reports whether a newer deployment exists; true
	// supersedes this instance.
	OnUpdateCheck func(ctx context.Context) bool
}

// Interceptor is a process-wide RoundTripper applying a per-class caching
// strategy to every outgoing GET. One instance serves the whole process and
// outlives any single page of the UI embedding it.
type Interceptor struct {
	opts       Options
	next       http.RoundTripper
	classifier *Classifier
	now        func() time.Time

	mu        sync.Mutex
	phase     Phase
	lastCheck time.Time

	revalidations sync.WaitGroup
}

var _ http.RoundTripper = (*Interceptor)(nil)

func New(opts Options) *Interceptor {
	next := opts.Next
	if next == nil {
		next = http.DefaultTransport
	}
	if opts.OfflineShell == "" {
		opts.OfflineShell = "/index.html"
	}
	if len(opts.PrecachePaths) == 0 {
		opts.PrecachePaths = []string{"/", opts.OfflineShell}
	}

	host := ""
	if u, err := url.Parse(opts.Origin); err == nil {
		host = u.Host
	}

	return &Interceptor{
		opts:       opts,
		next:       next,
		classifier: &Classifier{Host: host},
		now:        time.Now,
		phase:      PhaseNew,
	}
}

// Install precaches the shell assets. Without a store it is a no-op and the
// interceptor stays a pass-through transport.
func (i *Interceptor) Install(ctx context.Context) {
	if i.opts.Store == nil {
		return
	}

	for _, p := range i.opts.PrecachePaths {
		target := i.opts.Origin + p
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			log.Printf("precache %q skipped: %v", target, err)
			continue
		}
		if _, err := i.fetchAndStore(req, appBucket, target); err != nil {
			log.Printf("precache %q failed: %v", target, err)
		}
	}

	i.mu.Lock()
	i.phase = PhaseInstalled
	i.mu.Unlock()
}

// Activate drops cache namespaces left behind by older deployments, applies
// the one-time image purge gate, and starts serving.
func (i *Interceptor) Activate(ctx context.Context) {
	store := i.opts.Store
	if store == nil {
		return
	}

	keep := currentBuckets()
	for _, b := range store.Buckets(ctx) {
		if !keep[b] {
			store.DeleteBucket(ctx, b)
		}
	}

	current := strconv.Itoa(imagePurgeVersion)
	if stored := store.Meta(ctx, purgeVersionKey); stored != current {
		log.Printf("image cache purge version changed (%q -> %q), purging", stored, current)
		store.DeleteBucket(ctx, imageBucket)
		store.SetMeta(ctx, purgeVersionKey, current)
	}

	i.mu.Lock()
	i.phase = PhaseActive
	i.mu.Unlock()
}

// Supersede retires this instance; every request passes straight through.
func (i *Interceptor) Supersede() {
	i.mu.Lock()
	i.phase = PhaseSuperseded
	i.mu.Unlock()
}

func (i *Interceptor) Phase() Phase {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.phase
}

// Handle executes one control command.
func (i *Interceptor) Handle(ctx context.Context, cmd Command) {
	store := i.opts.Store
	if store == nil {
		return
	}

	switch cmd.Kind {
	case CommandSkipWaiting:
		if i.Phase() == PhaseInstalled {
			i.Activate(ctx)
		}
	case CommandClearCache:
		for _, b := range store.Buckets(ctx) {
			store.DeleteBucket(ctx, b)
		}
	case CommandClearImageCache:
		store.DeleteBucket(ctx, imageBucket)
	case CommandPrefetchImages:
		i.prefetch(ctx, cmd.URLs)
	}
}

// RoundTrip classifies the request and applies its class's strategy. Anything
// the interceptor cannot or should not cache goes straight to the network.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	if i.opts.Store == nil || i.Phase() != PhaseActive {
		return i.next.RoundTrip(req)
	}
	if req.Method != http.MethodGet || (req.URL.Scheme != "http" && req.URL.Scheme != "https") {
		return i.next.RoundTrip(req)
	}

	i.maybeCheckUpdate(req.Context())

	switch i.classifier.Classify(req) {
	case ClassImage:
		return i.serveImage(req)
	case ClassLegacyThumb:
		return i.serveCacheFirst(req, runtimeBucket, true)
	case ClassRelay:
		return i.serveNetworkFirst(req, runtimeBucket)
	case ClassNavigation:
		return i.serveNavigation(req)
	case ClassStatic:
		return i.serveCacheFirst(req, runtimeBucket, false)
	default:
		return i.serveDefault(req)
	}
}

// ImageCacheKey canonicalizes an image URL to origin+path plus its width
// tier. Quality and fit variants of the same width share one entry; distinct
// widths stay distinct.
func ImageCacheKey(u *url.URL) string {
	width := u.Query().Get("w")
	if width == "" {
		width = "full"
	}
	return u.Scheme + "://" + u.Host + u.Path + "?w=" + width
}

// serveImage: stale-while-revalidate over the bounded image bucket.
func (i *Interceptor) serveImage(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	key := ImageCacheKey(req.URL)

	if e := i.opts.Store.Get(ctx, imageBucket, key); e != nil {
		if i.now().Sub(e.FetchedAt) > RevalidateAfter {
			i.revalidations.Add(1)
			bg := req.Clone(context.WithoutCancel(ctx))
			go func() {
				defer i.revalidations.Done()
				if _, err := i.fetchAndStore(bg, imageBucket, key); err != nil {
					log.Printf("image revalidation %q failed: %v", key, err)
				}
			}()
		}
		return replay(e, req), nil
	}

	resp, err := i.fetchAndStore(req, imageBucket, key)
	if err != nil {
		return synthetic(req, http.StatusRequestTimeout, "network unavailable"), nil
	}
	i.trimImages(ctx)
	return resp, nil
}

// serveCacheFirst serves the cached copy when present. On a miss it fetches
// and caches. synthesize408 controls whether a network failure turns into a
// synthetic timeout response instead of an error.
func (i *Interceptor) serveCacheFirst(req *http.Request, bucket string, synthesize408 bool) (*http.Response, error) {
	ctx := req.Context()
	key := req.URL.String()

	if e := i.opts.Store.Get(ctx, bucket, key); e != nil {
		return replay(e, req), nil
	}

	resp, err := i.fetchAndStore(req, bucket, key)
	if err != nil {
		if synthesize408 {
			return synthetic(req, http.StatusRequestTimeout, "request timeout"), nil
		}
		return nil, err
	}
	return resp, nil
}

// serveNetworkFirst always tries the network, falling back to the cached
// copy only when the network fails.
func (i *Interceptor) serveNetworkFirst(req *http.Request, bucket string) (*http.Response, error) {
	ctx := req.Context()
	key := req.URL.String()

	resp, err := i.fetchAndStore(req, bucket, key)
	if err == nil {
		return resp, nil
	}
	if e := i.opts.Store.Get(ctx, bucket, key); e != nil {
		return replay(e, req), nil
	}
	return nil, err
}

// serveNavigation is network-first with a two-step fallback: the cached copy
// of the request, then the offline shell.
func (i *Interceptor) serveNavigation(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	key := req.URL.String()

	resp, err := i.fetchAndStore(req, appBucket, key)
	if err == nil {
		return resp, nil
	}

	if e := i.opts.Store.Get(ctx, appBucket, key); e != nil {
		return replay(e, req), nil
	}
	shellKey := i.opts.Origin + i.opts.OfflineShell
	if e := i.opts.Store.Get(ctx, appBucket, shellKey); e != nil {
		return replay(e, req), nil
	}
	return nil, err
}

func (i *Interceptor) serveDefault(req *http.Request) (*http.Response, error) {
	resp, err := i.next.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	ctx := req.Context()
	key := req.URL.String()
	for _, bucket := range []string{runtimeBucket, appBucket} {
		if e := i.opts.Store.Get(ctx, bucket, key); e != nil {
			return replay(e, req), nil
		}
	}
	return nil, err
}

// prefetch warms the image bucket for a batch of URLs. Individual failures
// are logged and skipped.
func (i *Interceptor) prefetch(ctx context.Context, urls []string) {
	for _, raw := range urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
		if err != nil {
			log.Printf("prefetch %q skipped: %v", raw, err)
			continue
		}
		resp, err := i.fetchAndStore(req, imageBucket, ImageCacheKey(req.URL))
		if err != nil {
			log.Printf("prefetch %q failed: %v", raw, err)
			continue
		}
		_ = resp.Body.Close()
	}
	i.trimImages(ctx)
}

// fetchAndStore performs the network fetch and, on a 2xx response, records
// the full payload under key before handing back an equivalent response.
// Non-2xx responses pass through uncached.
func (i *Interceptor) fetchAndStore(req *http.Request, bucket, key string) (*http.Response, error) {
	resp, err := i.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	e := &port.CachedResponse{
		Status:    resp.StatusCode,
		Header:    resp.Header.Clone(),
		Body:      body,
		FetchedAt: i.now(),
	}
	i.opts.Store.Put(req.Context(), bucket, key, e)

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

// trimImages enforces the image bucket bound, evicting oldest-first.
func (i *Interceptor) trimImages(ctx context.Context) {
	keys := i.opts.Store.Keys(ctx, imageBucket)
	if len(keys) <= MaxCachedImages {
		return
	}
	for _, key := range keys[:len(keys)-MaxCachedImages] {
		i.opts.Store.Delete(ctx, imageBucket, key)
	}
}

func (i *Interceptor) maybeCheckUpdate(ctx context.Context) {
	if i.opts.OnUpdateCheck == nil {
		return
	}

	i.mu.Lock()
	due := i.now().Sub(i.lastCheck) >= UpdateCheckInterval
	if due {
		i.lastCheck = i.now()
	}
	i.mu.Unlock()
	if !due {
		return
	}

	if i.opts.OnUpdateCheck(context.WithoutCancel(ctx)) {
		i.Supersede()
	}
}

// replay rebuilds an http.Response from a stored payload.
func replay(e *port.CachedResponse, req *http.Request) *http.Response {
	return &http.Response{
		Status:        http.StatusText(e.Status),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// synthetic builds an empty local response, used instead of surfacing raw
// transport errors for classes the UI expects to degrade quietly.
func synthetic(req *http.Request, status int, reason string) *http.Response {
	h := make(http.Header)
	h.Set("X-Synthetic-Response", reason)
	return &http.Response{
		Status:        http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(nil)),
		ContentLength: 0,
		Request:       req,
	}
}
