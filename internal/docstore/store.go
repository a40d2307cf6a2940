// Package docstore is a small document store keyed by slash-separated paths,
// in the style of hosted document databases: point reads, shallow merge-upserts
// that create the document when absent, collection scans over direct children,
// and change subscriptions that replay the full current result set.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("docstore: document not found")

// Document is one stored record. Values must be JSON-marshalable.
type Document map[string]any

// Entry pairs a document with its full path.
type Entry struct {
	Path string
	Doc  Document
}

// ID returns the last path segment, the document id within its collection.
func (e Entry) ID() string {
	if i := strings.LastIndexByte(e.Path, '/'); i >= 0 {
		return e.Path[i+1:]
	}
	return e.Path
}

// Store is the persistence contract every collaborator depends on.
// All coordination rests on UpsertMerge being an idempotent, per-field
// last-write-wins operation; no locking is exposed.
type Store interface {
	// Get returns the document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (Document, error)
	// ListCollection returns the direct children of the collection path,
	// ordered by path.
	ListCollection(ctx context.Context, path string) ([]Entry, error)
	// UpsertMerge merges fields into the document at path, creating it if
	// absent. Fields not named are left untouched. Calling it twice with
	// identical fields leaves the document unchanged.
	UpsertMerge(ctx context.Context, path string, fields Document) error
	// Subscribe registers fn for changes at or under path. After every
	// write that touches the subtree, fn receives the full current result
	// set. The returned handle cancels the registration.
	Subscribe(path string, fn func(entries []Entry)) (cancel func())
}

// Path joins segments into a document path.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// Decode converts a document into a typed record via a JSON round-trip.
func Decode(doc Document, dst any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// covers returns whether a write at path falls inside the subscribed subtree.
func covers(subscribed, path string) bool {
	return path == subscribed || strings.HasPrefix(path, subscribed+"/")
}
