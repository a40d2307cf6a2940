// Package comments implements the append-only discussion threads under each
// course video: top-level comments plus one level of replies.
package comments

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/olympia-platform/internal/docstore"
	"github.com/example/olympia-platform/internal/platform/events"
)

const (
	rootCollection    = "comments"
	commentCollection = "video-comments"
	replyCollection   = "reply"
)

// ErrEmptyContent marks a post whose content was empty after trimming.
// Callers treat it as a skip, not a failure.
var ErrEmptyContent = errors.New("comments: content is empty")

// ErrCommentNotFound is returned when a reply targets a comment that does not
// exist.
var ErrCommentNotFound = errors.New("comments: comment not found")

// Comment is one posted comment or reply. There is no edit or delete.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"name"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Service posts and lists comments for videos.
type Service struct {
	store  docstore.Store
	events *events.Publisher
	log    *zap.Logger
}

func NewService(store docstore.Store, pub *events.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, events: pub, log: log}
}

func commentsPath(videoID string) string {
	return docstore.Path(rootCollection, videoID, commentCollection)
}

func commentPath(videoID, commentID string) string {
	return docstore.Path(rootCollection, videoID, commentCollection, commentID)
}

func repliesPath(videoID, commentID string) string {
	return docstore.Path(rootCollection, videoID, commentCollection, commentID, replyCollection)
}

// PostComment appends a new top-level comment and returns it. Ids are random,
// so two users posting in the same instant never collide.
func (s *Service) PostComment(ctx context.Context, videoID, author, content string) (Comment, error) {
	c, err := s.post(ctx, videoID, author, content, func(id string) string {
		return commentPath(videoID, id)
	})
	if err != nil {
		return Comment{}, err
	}
	s.events.Publish(events.SubjectCommentPosted, "comment_posted", "", map[string]any{
		"video_id":   videoID,
		"comment_id": c.ID,
	})
	return c, nil
}

// PostReply appends a reply under an existing comment.
func (s *Service) PostReply(ctx context.Context, videoID, commentID, author, content string) (Comment, error) {
	if _, err := s.store.Get(ctx, commentPath(videoID, commentID)); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Comment{}, ErrCommentNotFound
		}
		return Comment{}, err
	}
	c, err := s.post(ctx, videoID, author, content, func(id string) string {
		return docstore.Path(repliesPath(videoID, commentID), id)
	})
	if err != nil {
		return Comment{}, err
	}
	s.events.Publish(events.SubjectCommentPosted, "comment_posted", "", map[string]any{
		"video_id":   videoID,
		"comment_id": commentID,
		"reply_id":   c.ID,
	})
	return c, nil
}

func (s *Service) post(ctx context.Context, videoID, author, content string, pathFor func(id string) string) (Comment, error) {
	if strings.TrimSpace(content) == "" {
		return Comment{}, ErrEmptyContent
	}
	c := Comment{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	err := s.store.UpsertMerge(ctx, pathFor(c.ID), docstore.Document{
		"name":      c.Author,
		"content":   c.Content,
		"timestamp": c.Timestamp,
	})
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// ListComments returns the video's top-level comments, newest first.
func (s *Service) ListComments(ctx context.Context, videoID string) ([]Comment, error) {
	return s.list(ctx, commentsPath(videoID))
}

// ListReplies returns the replies under one comment, newest first.
func (s *Service) ListReplies(ctx context.Context, videoID, commentID string) ([]Comment, error) {
	return s.list(ctx, repliesPath(videoID, commentID))
}

func (s *Service) list(ctx context.Context, path string) ([]Comment, error) {
	entries, err := s.store.ListCollection(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(entries))
	for _, e := range entries {
		var c Comment
		if err := docstore.Decode(e.Doc, &c); err != nil {
			return nil, err
		}
		c.ID = e.ID()
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// WatchComments invokes fn with the video's full comment list, newest first,
// after every change under it, until the returned cancel func is called.
func (s *Service) WatchComments(videoID string, fn func(comments []Comment)) (cancel func()) {
	return s.store.Subscribe(commentsPath(videoID), func(entries []docstore.Entry) {
		out := make([]Comment, 0, len(entries))
		for _, e := range entries {
			var c Comment
			if err := docstore.Decode(e.Doc, &c); err != nil {
				s.log.Warn("comments: bad document in snapshot",
					zap.String("path", e.Path), zap.Error(err))
				continue
			}
			c.ID = e.ID()
			out = append(out, c)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.After(out[j].Timestamp)
		})
		fn(out)
	})
}
