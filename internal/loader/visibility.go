package loader

import "sync"

// Visibility is the viewport-proximity capability the loader depends on
// abstractly. The UI layer backs it with an intersection observer (with a few
// hundred pixels of lookahead margin); tests drive it directly.
type Visibility interface {
	// Observe registers a callback fired when the target comes near the
	// viewport. The returned cancel detaches the observer.
	Observe(onVisible func()) (cancel func())
}

// ManualVisibility is a Visibility whose events are raised programmatically.
// It backs tests and any host without a real viewport.
type ManualVisibility struct {
	mu        sync.Mutex
	nextID    int
	observers map[int]func()
}

var _ Visibility = (*ManualVisibility)(nil)

func NewManualVisibility() *ManualVisibility {
	return &ManualVisibility{observers: make(map[int]func())}
}

func (v *ManualVisibility) Observe(onVisible func()) (cancel func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.observers[id] = onVisible
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.observers, id)
		v.mu.Unlock()
	}
}

// Raise fires every registered observer once.
func (v *ManualVisibility) Raise() {
	v.mu.Lock()
	obs := make([]func(), 0, len(v.observers))
	for _, fn := range v.observers {
		obs = append(obs, fn)
	}
	v.mu.Unlock()

	for _, fn := range obs {
		fn()
	}
}
