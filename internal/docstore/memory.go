package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Store used by tests and local development.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Document

	notifier notifier
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

func (m *Memory) Get(_ context.Context, path string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (m *Memory) ListCollection(_ context.Context, path string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := path + "/"
	var out []Entry
	for p, doc := range m.docs {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		// Direct children only; deeper paths belong to nested collections.
		if strings.ContainsRune(p[len(prefix):], '/') {
			continue
		}
		out = append(out, Entry{Path: p, Doc: cloneDoc(doc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *Memory) UpsertMerge(ctx context.Context, path string, fields Document) error {
	m.mu.Lock()
	doc, ok := m.docs[path]
	if !ok {
		doc = make(Document, len(fields))
		m.docs[path] = doc
	}
	for k, v := range fields {
		doc[k] = v
	}
	m.mu.Unlock()

	m.notifier.notify(ctx, m, path)
	return nil
}

func (m *Memory) Subscribe(path string, fn func(entries []Entry)) (cancel func()) {
	return m.notifier.subscribe(path, fn)
}

func cloneDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
