package progress

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/example/olympia-platform/internal/docstore"
	"github.com/example/olympia-platform/internal/platform/events"
)

// TrackerRegistry hands out one Tracker per (user, video) playback session.
// Guards are scoped to the tracker instance: releasing and re-acquiring
// starts a fresh session, and two devices get independent trackers.
type TrackerRegistry struct {
	store  docstore.Store
	events *events.Publisher
	log    *zap.Logger
	cfg    Config

	mu       sync.Mutex
	trackers map[string]*Tracker
}

func NewTrackerRegistry(store docstore.Store, pub *events.Publisher, log *zap.Logger, cfg Config) *TrackerRegistry {
	return &TrackerRegistry{
		store:    store,
		events:   pub,
		log:      log,
		cfg:      cfg,
		trackers: make(map[string]*Tracker),
	}
}

// Tracker returns the live tracker for the pair, creating it on first use.
func (r *TrackerRegistry) Tracker(ctx context.Context, userID, videoID string) *Tracker {
	key := userID + "|" + videoID

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trackers[key]; ok {
		return t
	}
	t := NewTracker(ctx, r.store, r.events, r.log, r.cfg, userID, videoID)
	r.trackers[key] = t
	return t
}

// Release drops the tracker when its playback session ends. In-flight writes
// are unaffected; they complete or fail on their own.
func (r *TrackerRegistry) Release(userID, videoID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trackers, userID+"|"+videoID)
}
