package viewer

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/xaco47/wedding-archive-go/internal/loader"
	"github.com/xaco47/wedding-archive-go/internal/media"
)

const (
	// ZoomMin and ZoomMax bound the zoom ladder.
	ZoomMin = 1.0
	ZoomMax = 3.0

	zoomStep      = 1.5
	doubleTapZoom = 2.0

	// DismissVelocity is the vertical fling speed past which a drag at base
	// zoom counts as dismiss intent.
	DismissVelocity = 500.0

	// PreloadRadius is how many neighbors on each side get their medium tier
	// warmed on every index change.
	PreloadRadius = 2

	// DefaultChromeIdle is how long the controls stay up without interaction.
	DefaultChromeIdle = 3 * time.Second
)

// Point is a pan offset in display pixels.
type Point struct {
	X float64
	Y float64
}

// Options configures a Viewer session over one category's descriptor list.
type Options struct {
	Items []media.Descriptor
	Index int

	Fetcher loader.ImageFetcher

	// OnClose fires once when the session ends, whatever triggered it.
	OnClose func()

	ChromeIdle time.Duration
}

// Viewer models the interactive state of a fullscreen media session: current
// index, zoom/pan, control-chrome visibility, playback, and the neighbor
// preload window. It carries no rendering; hosts read its state and draw.
type Viewer struct {
	opts Options

	mu      sync.Mutex
	index   int
	zoom    float64
	pan     Point
	playing bool
	chrome  bool
	closed  bool

	chromeTimer *time.Timer

	preloaded map[int]bool
	inflight  map[int]bool
	failed    map[int]bool

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New opens a session at the given index and warms the first preload window.
func New(ctx context.Context, opts Options) *Viewer {
	if opts.ChromeIdle <= 0 {
		opts.ChromeIdle = DefaultChromeIdle
	}
	idx := opts.Index
	if idx < 0 || idx >= len(opts.Items) {
		idx = 0
	}

	v := &Viewer{
		opts:      opts,
		index:     idx,
		zoom:      ZoomMin,
		preloaded: make(map[int]bool),
		inflight:  make(map[int]bool),
		failed:    make(map[int]bool),
	}

	v.mu.Lock()
	v.touchChromeLocked()
	v.preloadWindowLocked(ctx)
	v.mu.Unlock()
	return v
}

// Current returns the descriptor on display.
func (v *Viewer) Current() (media.Descriptor, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.opts.Items) == 0 {
		return media.Descriptor{}, false
	}
	return v.opts.Items[v.index], true
}

func (v *Viewer) Index() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.index
}

// Next advances to the following item, wrapping at the end.
func (v *Viewer) Next(ctx context.Context) {
	v.navigate(ctx, +1)
}

// Prev steps back to the preceding item, wrapping at the start.
func (v *Viewer) Prev(ctx context.Context) {
	v.navigate(ctx, -1)
}

func (v *Viewer) navigate(ctx context.Context, delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := len(v.opts.Items)
	if v.closed || n == 0 {
		return
	}
	// transient view state resets before the new index is exposed so a zoomed
	// frame never leaks into its neighbor
	v.resetViewLocked()
	v.index = ((v.index+delta)%n + n) % n
	v.touchChromeLocked()
	v.preloadWindowLocked(ctx)
}

// JumpTo moves straight to an index, as from a thumbnail strip. Out-of-range
// indexes are ignored.
func (v *Viewer) JumpTo(ctx context.Context, i int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || i < 0 || i >= len(v.opts.Items) {
		return
	}
	v.resetViewLocked()
	v.index = i
	v.touchChromeLocked()
	v.preloadWindowLocked(ctx)
}

func (v *Viewer) resetViewLocked() {
	v.zoom = ZoomMin
	v.pan = Point{}
	v.playing = false
}

// ZoomIn steps the zoom ladder up. Videos never zoom.
func (v *Viewer) ZoomIn() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.currentIsPhotoLocked() {
		return
	}
	v.zoom = math.Min(v.zoom*zoomStep, ZoomMax)
	v.touchChromeLocked()
}

// ZoomOut steps the ladder down, recentering once the image returns to base
// zoom.
func (v *Viewer) ZoomOut() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.currentIsPhotoLocked() {
		return
	}
	if v.zoom <= zoomStep {
		v.pan = Point{}
	}
	v.zoom = math.Max(v.zoom/zoomStep, ZoomMin)
	v.touchChromeLocked()
}

// DoubleTap toggles between base zoom and a fixed magnified level.
func (v *Viewer) DoubleTap() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.currentIsPhotoLocked() {
		return
	}
	if v.zoom > ZoomMin {
		v.zoom = ZoomMin
		v.pan = Point{}
	} else {
		v.zoom = doubleTapZoom
	}
	v.touchChromeLocked()
}

// Drag accumulates a pan delta. It only applies while zoomed in; at base zoom
// a drag is a navigation or dismiss gesture, not a pan.
func (v *Viewer) Drag(dx, dy float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.currentIsPhotoLocked() || v.zoom <= ZoomMin {
		return
	}
	v.pan.X += dx
	v.pan.Y += dy
}

// DragEnd interprets the release velocity. A fast vertical fling at base zoom
// dismisses the session.
func (v *Viewer) DragEnd(vx, vy float64) {
	v.mu.Lock()
	dismiss := !v.closed && v.zoom == ZoomMin && math.Abs(vy) > DismissVelocity
	v.mu.Unlock()
	if dismiss {
		v.Close()
	}
}

// TogglePlay flips playback state for the current video. No-op on photos.
func (v *Viewer) TogglePlay() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.currentIsPhotoLocked() {
		return
	}
	v.playing = !v.playing
	v.touchChromeLocked()
}

// Interact marks any qualifying user event: it shows the chrome and restarts
// the idle countdown.
func (v *Viewer) Interact() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.touchChromeLocked()
}

// Close ends the session. Idempotent.
func (v *Viewer) Close() {
	v.closeOnce.Do(func() {
		v.mu.Lock()
		v.closed = true
		if v.chromeTimer != nil {
			v.chromeTimer.Stop()
		}
		v.mu.Unlock()
		if v.opts.OnClose != nil {
			v.opts.OnClose()
		}
	})
}

func (v *Viewer) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

func (v *Viewer) Pan() Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pan
}

func (v *Viewer) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

func (v *Viewer) ChromeVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.chrome
}

func (v *Viewer) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Preloaded reports whether the given index's medium tier has been warmed.
func (v *Viewer) Preloaded(i int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.preloaded[i]
}

// Failed reports whether the given index's warm attempt errored. A failed
// item renders an unavailable marker; navigation past it stays live.
func (v *Viewer) Failed(i int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.failed[i]
}

func (v *Viewer) currentIsPhotoLocked() bool {
	if len(v.opts.Items) == 0 {
		return false
	}
	return v.opts.Items[v.index].MediaType == media.TypePhoto
}

// touchChromeLocked shows the controls and debounces the hide timer.
func (v *Viewer) touchChromeLocked() {
	v.chrome = true
	if v.chromeTimer != nil {
		v.chromeTimer.Stop()
	}
	v.chromeTimer = time.AfterFunc(v.opts.ChromeIdle, func() {
		v.mu.Lock()
		if !v.closed {
			v.chrome = false
		}
		v.mu.Unlock()
	})
}

// preloadWindowLocked warms the medium tier of the neighbors around the
// current index. The preloaded set keeps re-renders from re-triggering warm
// fetches for the same index.
func (v *Viewer) preloadWindowLocked(ctx context.Context) {
	n := len(v.opts.Items)
	if n == 0 || v.opts.Fetcher == nil {
		return
	}

	for d := -PreloadRadius; d <= PreloadRadius; d++ {
		idx := ((v.index+d)%n + n) % n
		if v.preloaded[idx] || v.inflight[idx] {
			continue
		}
		item := v.opts.Items[idx]
		url := item.Thumbnails.Medium
		if url == "" {
			url = item.OriginalURL
		}
		if url == "" {
			continue
		}

		v.inflight[idx] = true
		v.wg.Add(1)
		go func(idx int, url string) {
			defer v.wg.Done()
			err := v.opts.Fetcher.FetchImage(ctx, url)

			v.mu.Lock()
			delete(v.inflight, idx)
			if err != nil {
				v.failed[idx] = true
			} else {
				v.preloaded[idx] = true
				delete(v.failed, idx)
			}
			v.mu.Unlock()

			if err != nil {
				log.Printf("preload index %d (%s) failed: %v", idx, url, err)
			}
		}(idx, url)
	}
}
