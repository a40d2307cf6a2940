package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/olympia-platform/internal/catalog"
	"github.com/example/olympia-platform/internal/comments"
	"github.com/example/olympia-platform/internal/media"
	"github.com/example/olympia-platform/internal/platform/api"
	"github.com/example/olympia-platform/internal/platform/auth"
	"github.com/example/olympia-platform/internal/platform/httpserver"
	"github.com/example/olympia-platform/internal/progress"
)

func userFrom(w http.ResponseWriter, r *http.Request, rid string) (string, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(uid) == "" {
		api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
		return "", false
	}
	return uid, true
}

type courseVideoResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Topic           string     `json:"topic"`
	Order           int        `json:"order"`
	DurationSeconds int        `json:"duration_seconds"`
	WatchedPercent  int        `json:"watched_percent"`
	Completed       bool       `json:"completed"`
	LastWatched     *time.Time `json:"last_watched,omitempty"`
}

// ListCourseVideos merges the catalog with the caller's progress records.
func ListCourseVideos(cat *catalog.Catalog, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		videos, err := cat.Videos(r.Context())
		if err != nil {
			api.Internal(w, rid)
			return
		}
		records, err := prog.Records(r.Context(), uid)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		byVideo := make(map[string]progress.Record, len(records))
		for _, rec := range records {
			byVideo[rec.VideoID] = rec
		}

		out := make([]courseVideoResponse, 0, len(videos))
		for _, v := range videos {
			item := courseVideoResponse{
				ID:              v.ID,
				Title:           v.Title,
				Topic:           v.Topic,
				Order:           v.Order,
				DurationSeconds: v.DurationSeconds,
			}
			if rec, ok := byVideo[v.ID]; ok {
				item.WatchedPercent = rec.WatchedPercent
				item.Completed = rec.Completed
				item.LastWatched = rec.LastWatched
			}
			out = append(out, item)
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"videos": out})
	}
}

type watchResponse struct {
	Video    courseVideoResponse `json:"video"`
	URL      string              `json:"url"`
	Comments []comments.Comment  `json:"comments"`
}

// WatchVideo returns everything the player page needs: metadata, a signed
// playback URL, and the discussion thread.
func WatchVideo(cat *catalog.Catalog, cmts *comments.Service, resolver media.Resolver) http.HandlerFunc {
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

		v, err := cat.Video(r.Context(), videoID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				api.NotFound(w, "VIDEO_NOT_FOUND", "Video not found", rid)
				return
			}
			api.Internal(w, rid)
			return
		}

		url, err := resolver.ResolveURL(r.Context(), uid, v.StoragePath)
		if err != nil {
			if errors.Is(err, media.ErrNotFound) {
				api.NotFound(w, "MEDIA_NOT_FOUND", "Video file not found", rid)
				return
			}
			api.Internal(w, rid)
			return
		}

		thread, err := cmts.ListComments(r.Context(), videoID)
		if err != nil {
			api.Internal(w, rid)
			return
		}

		api.WriteJSON(w, http.StatusOK, watchResponse{
			Video: courseVideoResponse{
				ID:              v.ID,
				Title:           v.Title,
				Topic:           v.Topic,
				Order:           v.Order,
				DurationSeconds: v.DurationSeconds,
			},
			URL:      url,
			Comments: thread,
		})
	}
}

type progressSampleRequest struct {
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
}

// PostProgress feeds one playback sample into the caller's tracker. The
// response does not reveal whether the sample caused a write.
func PostProgress(reg *progress.TrackerRegistry) http.HandlerFunc {
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

		var req progressSampleRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		if req.CurrentTime < 0 || req.Duration < 0 {
			api.BadRequest(w, "INVALID_SAMPLE", "current_time and duration must be non-negative", rid, nil)
			return
		}

		reg.Tracker(r.Context(), uid, videoID).OnPlaybackSample(r.Context(), req.CurrentTime, req.Duration)
		api.NoContent(w)
	}
}

// CourseSummary returns the caller's derived completion view.
func CourseSummary(prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		sum, err := prog.Summary(r.Context(), uid)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, sum)
	}
}

// ProvisionCourse creates the caller's zero progress records. Safe to call on
// every login; an already-provisioned user is a no-op.
func ProvisionCourse(prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		if err := prog.Provision(r.Context(), uid); err != nil {
			api.Internal(w, rid)
			return
		}
		api.NoContent(w)
	}
}
