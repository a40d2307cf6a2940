// Package catalog reads the course content collections: crash-course videos,
// problem sets, and worked solutions. Content is authored out-of-band; this
// package only consumes it.
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/example/olympia-platform/internal/docstore"
)

const (
	videosCollection    = "crash-course-videos"
	problemsCollection  = "problems"
	solutionsCollection = "solutions"
)

var ErrNotFound = errors.New("catalog: not found")

// Video is one crash-course lecture. DurationSeconds is copied into each
// user's progress record at provisioning time.
type Video struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Topic           string `json:"topic"`
	Order           int    `json:"order"`
	DurationSeconds int    `json:"duration"`
	StoragePath     string `json:"url"`
}

// Block is an opaque content fragment: prose, TeX markup, or an image
// reference whose storage path needs resolving before display.
type Block struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type Problem struct {
	ID          string  `json:"id"`
	Topic       string  `json:"topic"`
	Blocks      []Block `json:"blocks"`
	SolutionRef string  `json:"ref,omitempty"`
}

// Solution is the worked answer for a problem, in one of three shapes.
type Solution struct {
	Format    string  `json:"format"` // "pdf", "video" or "blocks"
	PDFPath   string  `json:"pdf_url,omitempty"`
	VideoPath string  `json:"video_url,omitempty"`
	Blocks    []Block `json:"blocks,omitempty"`
}

type Catalog struct {
	store docstore.Store
}

func New(store docstore.Store) *Catalog {
	return &Catalog{store: store}
}

// Videos returns all crash-course videos grouped by topic, each topic in
// lecture order.
func (c *Catalog) Videos(ctx context.Context) ([]Video, error) {
	entries, err := c.store.ListCollection(ctx, videosCollection)
	if err != nil {
		return nil, err
	}
	out := make([]Video, 0, len(entries))
	for _, e := range entries {
		var v Video
		if err := docstore.Decode(e.Doc, &v); err != nil {
			return nil, err
		}
		v.ID = e.ID()
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Topic != out[j].Topic {
			return out[i].Topic < out[j].Topic
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

// Video fetches one lecture by id.
func (c *Catalog) Video(ctx context.Context, id string) (Video, error) {
	doc, err := c.store.Get(ctx, docstore.Path(videosCollection, id))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Video{}, ErrNotFound
		}
		return Video{}, err
	}
	var v Video
	if err := docstore.Decode(doc, &v); err != nil {
		return Video{}, err
	}
	v.ID = id
	return v, nil
}

func (c *Catalog) Problems(ctx context.Context) ([]Problem, error) {
	entries, err := c.store.ListCollection(ctx, problemsCollection)
	if err != nil {
		return nil, err
	}
	out := make([]Problem, 0, len(entries))
	for _, e := range entries {
		var p Problem
		if err := docstore.Decode(e.Doc, &p); err != nil {
			return nil, err
		}
		p.ID = e.ID()
		out = append(out, p)
	}
	return out, nil
}

// Problem fetches one problem by id.
func (c *Catalog) Problem(ctx context.Context, id string) (Problem, error) {
	doc, err := c.store.Get(ctx, docstore.Path(problemsCollection, id))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Problem{}, ErrNotFound
		}
		return Problem{}, err
	}
	var p Problem
	if err := docstore.Decode(doc, &p); err != nil {
		return Problem{}, err
	}
	p.ID = id
	return p, nil
}

func (c *Catalog) ProblemsByTopic(ctx context.Context, topic string) ([]Problem, error) {
	all, err := c.Problems(ctx)
	if err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	out := all[:0:0]
	for _, p := range all {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out, nil
}

// Solution fetches the worked solution referenced by a problem.
// A missing document is a user-visible condition, not a silent default.
func (c *Catalog) Solution(ctx context.Context, ref string) (Solution, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Solution{}, ErrNotFound
	}
	doc, err := c.store.Get(ctx, docstore.Path(solutionsCollection, ref))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Solution{}, ErrNotFound
		}
		return Solution{}, err
	}
	var s Solution
	if err := docstore.Decode(doc, &s); err != nil {
		return Solution{}, err
	}
	return s, nil
}
