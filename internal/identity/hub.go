package identity

import "sync"

// Hub broadcasts auth-state changes to in-process observers. A nil principal
// means signed out. New watchers immediately receive the current state, so
// components can defer store access until an identity is known.
type Hub struct {
	mu       sync.Mutex
	next     int
	watchers map[int]func(*Principal)
	current  *Principal
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[int]func(*Principal))}
}

// Watch registers fn and delivers the current state to it before returning.
// The returned handle cancels the registration.
func (h *Hub) Watch(fn func(p *Principal)) (cancel func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.watchers[id] = fn
	current := h.current
	h.mu.Unlock()

	fn(current)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.watchers, id)
	}
}

// Announce sets the current auth state and notifies every watcher.
// Callbacks run on the announcing goroutine.
func (h *Hub) Announce(p *Principal) {
	h.mu.Lock()
	h.current = p
	watchers := make([]func(*Principal), 0, len(h.watchers))
	for _, fn := range h.watchers {
		watchers = append(watchers, fn)
	}
	h.mu.Unlock()

	for _, fn := range watchers {
		fn(p)
	}
}

// Current returns the most recently announced principal, or nil.
func (h *Hub) Current() *Principal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}
