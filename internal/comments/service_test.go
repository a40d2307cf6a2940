package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/olympia-platform/internal/docstore"
)

func newTestService() *Service {
	return NewService(docstore.NewMemory(), nil, zap.NewNop())
}

func TestPostComment_RoundTrips(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	posted, err := svc.PostComment(ctx, "v1", "Nadia", "Why does the orbit precess here?")
	if err != nil {
		t.Fatalf("PostComment() error = %v", err)
	}
	if posted.ID == "" {
		t.Fatal("expected a generated comment id")
	}

	list, err := svc.ListComments(ctx, "v1")
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(list))
	}
	got := list[0]
	if got.ID != posted.ID || got.Author != "Nadia" || got.Content != "Why does the orbit precess here?" {
		t.Fatalf("unexpected comment %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("expected a timestamp")
	}
}

func TestPostComment_EmptyContentIsSkipped(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.PostComment(ctx, "v1", "Nadia", content)
		if !errors.Is(err, ErrEmptyContent) {
			t.Fatalf("PostComment(%q) error = %v, want ErrEmptyContent", content, err)
		}
	}

	list, err := svc.ListComments(ctx, "v1")
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("blank posts must not be stored, got %d", len(list))
	}
}

func TestPostComment_ConcurrentPostsGetDistinctIDs(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// Same author, same instant: the random id keeps both posts.
	a, err := svc.PostComment(ctx, "v1", "Raka", "first")
	if err != nil {
		t.Fatalf("PostComment() error = %v", err)
	}
	b, err := svc.PostComment(ctx, "v1", "Raka", "second")
	if err != nil {
		t.Fatalf("PostComment() error = %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, both got %s", a.ID)
	}

	list, _ := svc.ListComments(ctx, "v1")
	if len(list) != 2 {
		t.Fatalf("expected both comments stored, got %d", len(list))
	}
}

func TestListComments_NewestFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, content := range []string{"oldest", "middle", "newest"} {
		if _, err := svc.PostComment(ctx, "v1", "Nadia", content); err != nil {
			t.Fatalf("PostComment() error = %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	list, err := svc.ListComments(ctx, "v1")
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(list))
	}
	if list[0].Content != "newest" || list[2].Content != "oldest" {
		t.Fatalf("expected newest first, got %q, %q, %q",
			list[0].Content, list[1].Content, list[2].Content)
	}
}

func TestListComments_ScopedToVideo(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _ = svc.PostComment(ctx, "v1", "Nadia", "on v1")
	_, _ = svc.PostComment(ctx, "v2", "Raka", "on v2")

	list, err := svc.ListComments(ctx, "v1")
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(list) != 1 || list[0].Content != "on v1" {
		t.Fatalf("expected only v1's comment, got %+v", list)
	}
}

func TestPostReply_NestsUnderComment(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	parent, err := svc.PostComment(ctx, "v1", "Nadia", "Why does the orbit precess?")
	if err != nil {
		t.Fatalf("PostComment() error = %v", err)
	}
	reply, err := svc.PostReply(ctx, "v1", parent.ID, "Raka", "The potential is not exactly 1/r.")
	if err != nil {
		t.Fatalf("PostReply() error = %v", err)
	}

	replies, err := svc.ListReplies(ctx, "v1", parent.ID)
	if err != nil {
		t.Fatalf("ListReplies() error = %v", err)
	}
	if len(replies) != 1 || replies[0].ID != reply.ID {
		t.Fatalf("expected the posted reply, got %+v", replies)
	}

	// Replies must not leak into the top-level listing.
	top, _ := svc.ListComments(ctx, "v1")
	if len(top) != 1 {
		t.Fatalf("expected replies excluded from top level, got %d entries", len(top))
	}
}

func TestPostReply_UnknownCommentFails(t *testing.T) {
	svc := newTestService()

	_, err := svc.PostReply(context.Background(), "v1", "no-such-comment", "Raka", "hello?")
	if !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("PostReply() error = %v, want ErrCommentNotFound", err)
	}
}

func TestWatchComments(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	var snapshots [][]Comment
	cancel := svc.WatchComments("v1", func(comments []Comment) {
		snapshots = append(snapshots, comments)
	})

	first, _ := svc.PostComment(ctx, "v1", "Nadia", "first")
	_, _ = svc.PostComment(ctx, "v1", "Raka", "second")
	_, _ = svc.PostComment(ctx, "v2", "Sari", "elsewhere") // other video, not observed

	if len(snapshots) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(snapshots))
	}
	if len(snapshots[1]) != 2 || snapshots[1][0].Content != "second" {
		t.Fatalf("expected latest snapshot newest first, got %+v", snapshots[1])
	}

	// A reply changes the subtree; the top-level snapshot stays at two entries.
	if _, err := svc.PostReply(ctx, "v1", first.ID, "Raka", "welcome"); err != nil {
		t.Fatalf("PostReply() error = %v", err)
	}
	if got := snapshots[len(snapshots)-1]; len(got) != 2 {
		t.Fatalf("reply must not appear in the top-level snapshot, got %+v", got)
	}

	cancel()
	_, _ = svc.PostComment(ctx, "v1", "Nadia", "after cancel")
	n := len(snapshots)
	_, _ = svc.PostComment(ctx, "v1", "Nadia", "still cancelled")
	if len(snapshots) != n {
		t.Fatalf("expected no notifications after cancel")
	}
}
