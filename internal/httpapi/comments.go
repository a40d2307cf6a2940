package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/olympia-platform/internal/comments"
	"github.com/example/olympia-platform/internal/platform/api"
	"github.com/example/olympia-platform/internal/platform/auth"
	"github.com/example/olympia-platform/internal/platform/httpserver"
)

type postCommentRequest struct {
	Content string `json:"content"`
}

// authorFrom picks the display name carried in the access token, falling back
// to the user id for tokens issued before display names existed.
func authorFrom(r *http.Request, uid string) string {
	if name, ok := auth.DisplayNameFromContext(r.Context()); ok && strings.TrimSpace(name) != "" {
		return name
	}
	return uid
}

func PostComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		videoID := strings.TrimSpace(chi.URLParam(r, "video_id"))
		if videoID == "" {
			api.BadRequest(w, "MISSING_ID", "video_id is required", rid, nil)
			return
		}

		var req postCommentRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		c, err := svc.PostComment(r.Context(), videoID, authorFrom(r, uid), req.Content)
		if err != nil {
			if errors.Is(err, comments.ErrEmptyContent) {
				api.NoContent(w)
				return
			}
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusCreated, c)
	}
}

func ListComments(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		videoID := strings.TrimSpace(chi.URLParam(r, "video_id"))
		if videoID == "" {
			api.BadRequest(w, "MISSING_ID", "video_id is required", rid, nil)
			return
		}

		list, err := svc.ListComments(r.Context(), videoID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"comments": list})
	}
}

func PostReply(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		videoID := strings.TrimSpace(chi.URLParam(r, "video_id"))
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if videoID == "" || commentID == "" {
			api.BadRequest(w, "MISSING_ID", "video_id and comment_id are required", rid, nil)
			return
		}

		var req postCommentRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		c, err := svc.PostReply(r.Context(), videoID, commentID, authorFrom(r, uid), req.Content)
		if err != nil {
			switch {
			case errors.Is(err, comments.ErrEmptyContent):
				api.NoContent(w)
			case errors.Is(err, comments.ErrCommentNotFound):
				api.NotFound(w, "COMMENT_NOT_FOUND", "Comment not found", rid)
			default:
				api.Internal(w, rid)
			}
			return
		}
		api.WriteJSON(w, http.StatusCreated, c)
	}
}

func ListReplies(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		videoID := strings.TrimSpace(chi.URLParam(r, "video_id"))
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if videoID == "" || commentID == "" {
			api.BadRequest(w, "MISSING_ID", "video_id and comment_id are required", rid, nil)
			return
		}

		list, err := svc.ListReplies(r.Context(), videoID, commentID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"replies": list})
	}
}
