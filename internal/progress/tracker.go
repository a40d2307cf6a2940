package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/olympia-platform/internal/docstore"
	"github.com/example/olympia-platform/internal/platform/events"
)

// Config carries the persistence thresholds for playback tracking.
type Config struct {
	// BucketSizePercent throttles writes: at most one write per bucket of
	// watched percent crossed.
	BucketSizePercent int
	// CompletionThreshold is the watched fraction that marks the video done.
	CompletionThreshold float64
}

func (c Config) withDefaults() Config {
	if c.BucketSizePercent <= 0 || c.BucketSizePercent > 100 {
		c.BucketSizePercent = 10
	}
	if c.CompletionThreshold <= 0 || c.CompletionThreshold > 1 {
		c.CompletionThreshold = 0.90
	}
	return c
}

// Tracker consumes playback-time samples for one (user, video) pair and
// decides when to persist. Guards live in memory for the tracker's lifetime:
// a second tracker for the same pair (another device, another session) may
// repeat equivalent writes, which the merge-upsert store absorbs.
type Tracker struct {
	store  docstore.Store
	events *events.Publisher
	log    *zap.Logger
	cfg    Config

	userID  string
	videoID string
	path    string

	mu              sync.Mutex
	lastSavedBucket int
	completed       bool
}

// NewTracker reads the record once to honour an already-terminal state;
// afterwards only the in-memory guards are consulted. A missing record is
// simply fresh state.
func NewTracker(ctx context.Context, store docstore.Store, pub *events.Publisher, log *zap.Logger, cfg Config, userID, videoID string) *Tracker {
	t := &Tracker{
		store:   store,
		events:  pub,
		log:     log,
		cfg:     cfg.withDefaults(),
		userID:  userID,
		videoID: videoID,
		path:    recordPath(userID, videoID),
	}

	doc, err := store.Get(ctx, t.path)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			log.Warn("progress: initial record read failed",
				zap.String("user_id", userID), zap.String("video_id", videoID), zap.Error(err))
		}
		return t
	}
	var rec Record
	if err := docstore.Decode(doc, &rec); err == nil && rec.Completed {
		t.completed = true
	}
	return t
}

// OnPlaybackSample processes one playback-position sample.
//
// Writes happen on two independent conditions: crossing into a new, higher
// percent bucket, and the first sample at or past the completion threshold.
// Persistence failures are logged and the guards stay advanced, so a failed
// write for a bucket is not retried (at-most-once, best effort).
func (t *Tracker) OnPlaybackSample(ctx context.Context, currentTimeSeconds, durationSeconds float64) {
	if durationSeconds <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed {
		return
	}

	fraction := currentTimeSeconds / durationSeconds
	// Players can report positions past the end (seeking, rounding).
	// Clamp so watchedPercent never leaves [0,100].
	if fraction > 1 {
		fraction = 1
	}
	bucket := int(fraction*100) / t.cfg.BucketSizePercent * t.cfg.BucketSizePercent

	if bucket >= t.cfg.BucketSizePercent && bucket > t.lastSavedBucket {
		t.lastSavedBucket = bucket
		now := time.Now().UTC()
		err := t.store.UpsertMerge(ctx, t.path, docstore.Document{
			"watchedPercent": bucket,
			"lastWatched":    now,
		})
		if err != nil {
			t.log.Warn("progress: bucket write failed",
				zap.String("user_id", t.userID), zap.String("video_id", t.videoID),
				zap.Int("bucket", bucket), zap.Error(err))
		} else {
			t.events.Publish(events.SubjectVideoWatched, "video_watched", t.userID, map[string]any{
				"video_id":        t.videoID,
				"watched_percent": bucket,
			})
		}
	}

	if fraction >= t.cfg.CompletionThreshold {
		t.completed = true
		now := time.Now().UTC()
		err := t.store.UpsertMerge(ctx, t.path, docstore.Document{
			"watchedPercent": 100,
			"completed":      true,
			"lastWatched":    now,
		})
		if err != nil {
			t.log.Warn("progress: completion write failed",
				zap.String("user_id", t.userID), zap.String("video_id", t.videoID), zap.Error(err))
			return
		}
		t.events.Publish(events.SubjectVideoCompleted, "video_completed", t.userID, map[string]any{
			"video_id": t.videoID,
		})
	}
}

// Completed reports whether this tracker has observed or issued the terminal
// write.
func (t *Tracker) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}
