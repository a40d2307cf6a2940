package docstore

import (
	"context"
	"sync"
)

// lister is the slice of Store a notifier needs to build snapshots.
type lister interface {
	Get(ctx context.Context, path string) (Document, error)
	ListCollection(ctx context.Context, path string) ([]Entry, error)
}

type subscription struct {
	path string
	fn   func(entries []Entry)
}

// notifier fans a write out to matching subscribers. Both store
// implementations embed one; delivery is in-process and runs on the
// writer's goroutine, so callbacks must be fast or copy.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]subscription
}

func (n *notifier) subscribe(path string, fn func(entries []Entry)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]subscription)
	}
	id := n.next
	n.next++
	n.subs[id] = subscription{path: path, fn: fn}
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// notify pushes the current result set for every subscription covering path.
func (n *notifier) notify(ctx context.Context, src lister, path string) {
	n.mu.Lock()
	matched := make([]subscription, 0, len(n.subs))
	for _, s := range n.subs {
		if covers(s.path, path) {
			matched = append(matched, s)
		}
	}
	n.mu.Unlock()

	for _, s := range matched {
		s.fn(snapshot(ctx, src, s.path))
	}
}

// snapshot resolves a subscribed path to its result set: the children of a
// collection, or the single document when the path names one directly.
func snapshot(ctx context.Context, src lister, path string) []Entry {
	if doc, err := src.Get(ctx, path); err == nil {
		return []Entry{{Path: path, Doc: doc}}
	}
	entries, err := src.ListCollection(ctx, path)
	if err != nil {
		return nil
	}
	return entries
}
