package loader

import (
	"context"
	"log"
	"sync"
	"time"
)

// State of one progressive load.
type State int

const (
	// StateIdle: constructed, waiting for the visibility gate.
	StateIdle State = iota
	// StateLoading: base (medium) tier in flight, placeholder on display.
	StateLoading
	// StateLoaded: a renderable tier is on display.
	StateLoaded
	// StateUpgrading: base tier on display, richer tier in flight.
	StateUpgrading
	// StateError: base tier and the one-shot original fallback both failed.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUpgrading:
		return "upgrading"
	case StateError:
		return "error"
	}
	return "unknown"
}

// DefaultTimeout bounds one tier fetch. Past it the loader stops waiting and
// keeps whatever lower tier it already has instead of spinning forever.
const DefaultTimeout = 12 * time.Second

const (
	defaultRatioW = 3
	defaultRatioH = 4
)

// Options configures one Loader instance.
type Options struct {
	// Tier URLs. Medium is the base tier; Original is the unresized
	// fallback; Preview is the opportunistic upgrade; Placeholder renders
	// blurred before any bytes arrive.
	Placeholder string
	Medium      string
	Preview     string
	Original    string

	// Approximate dimensions for aspect-ratio reservation.
	Width  int
	Height int

	// Priority loads skip the visibility gate (first grid rows).
	Priority bool

	Timeout time.Duration

	// OnLoad fires exactly once per instance, on the first displayed
	// renderable tier. Upgrades never re-fire it.
	OnLoad func()

	Fetcher ImageFetcher
}

// Loader drives one image from placeholder through increasing quality tiers.
// Instances are independent: no global lock, no cross-instance ordering.
type Loader struct {
	opts Options

	mu         sync.Mutex
	state      State
	displayURL string
	attempts   int

	startOnce  sync.Once
	onLoadOnce sync.Once

	baseDone chan struct{}
	done     chan struct{}
}

func New(opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Medium == "" {
		// degraded descriptor: the original doubles as the base tier
		opts.Medium = opts.Original
	}
	return &Loader{
		opts:       opts,
		state:      StateIdle,
		displayURL: opts.Placeholder,
		baseDone:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Watch wires the loader to a visibility notifier. Priority loaders start
// immediately; the rest hold every network request until the target comes
// within viewport proximity.
func (l *Loader) Watch(ctx context.Context, v Visibility) {
	if l.opts.Priority || v == nil {
		l.Visible(ctx)
		return
	}
	var cancel func()
	cancel = v.Observe(func() {
		l.Visible(ctx)
		if cancel != nil {
			cancel()
		}
	})
}

// Visible triggers the load sequence. Idempotent: later calls are no-ops.
func (l *Loader) Visible(ctx context.Context) {
	l.startOnce.Do(func() {
		l.mu.Lock()
		l.state = StateLoading
		l.mu.Unlock()
		go l.run(ctx)
	})
}

func (l *Loader) run(ctx context.Context) {
	defer close(l.done)

	ok := l.loadBase(ctx)
	close(l.baseDone)
	if !ok {
		return
	}

	l.upgrade(ctx)
}

// loadBase fetches the medium tier with a single one-shot fallback to the
// unresized original. Two failed fetches end in StateError; there is never a
// third attempt.
func (l *Loader) loadBase(ctx context.Context) bool {
	if l.fetch(ctx, l.opts.Medium) {
		l.setLoaded(l.opts.Medium)
		return true
	}

	if l.opts.Original != "" && l.opts.Original != l.opts.Medium {
		if l.fetch(ctx, l.opts.Original) {
			l.setLoaded(l.opts.Original)
			return true
		}
	}

	l.mu.Lock()
	l.state = StateError
	l.mu.Unlock()
	return false
}

// upgrade opportunistically promotes to the preview tier. Failures and
// timeouts are silent: the medium tier stays on display. A base load that
// already fell back to the full original has nothing to upgrade to.
func (l *Loader) upgrade(ctx context.Context) {
	url := l.opts.Preview
	if url == "" || url == l.opts.Medium || l.displayedURL() != l.opts.Medium {
		return
	}

	l.mu.Lock()
	l.state = StateUpgrading
	l.mu.Unlock()

	if l.fetch(ctx, url) {
		l.setLoaded(url)
		return
	}

	l.mu.Lock()
	l.state = StateLoaded
	l.mu.Unlock()
}

func (l *Loader) fetch(ctx context.Context, url string) bool {
	if url == "" || l.opts.Fetcher == nil {
		return false
	}

	l.mu.Lock()
	l.attempts++
	l.mu.Unlock()

	fctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	if err := l.opts.Fetcher.FetchImage(fctx, url); err != nil {
		log.Printf("image fetch %q failed: %v", url, err)
		return false
	}
	return true
}

func (l *Loader) setLoaded(url string) {
	l.mu.Lock()
	l.state = StateLoaded
	l.displayURL = url
	l.mu.Unlock()

	l.onLoadOnce.Do(func() {
		if l.opts.OnLoad != nil {
			l.opts.OnLoad()
		}
	})
}

func (l *Loader) displayedURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.displayURL
}

// State reports the current machine state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// DisplayURL is the asset currently worth rendering: the placeholder until a
// real tier lands, then the richest loaded tier.
func (l *Loader) DisplayURL() string {
	return l.displayedURL()
}

// Attempts counts issued fetches; used to enforce the fallback-once policy.
func (l *Loader) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}

// AspectRatio returns the ratio to reserve before any bytes arrive, falling
// back to 3:4 when the descriptor carries no dimensions. Reserving up front
// keeps the grid from shifting while images stream in.
func (l *Loader) AspectRatio() (int, int) {
	if l.opts.Width > 0 && l.opts.Height > 0 {
		return l.opts.Width, l.opts.Height
	}
	return defaultRatioW, defaultRatioH
}

// BaseDone is closed once the base tier settles, successfully or not.
func (l *Loader) BaseDone() <-chan struct{} { return l.baseDone }

// Done is closed once the whole sequence, upgrade included, settles.
func (l *Loader) Done() <-chan struct{} { return l.done }
