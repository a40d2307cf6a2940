// Package progress implements the watch-progress subsystem: per-video
// playback tracking with bucketed persistence, course-level aggregation,
// and first-use provisioning of a user's progress records.
package progress

import (
	"time"

	"github.com/example/olympia-platform/internal/docstore"
)

const rootCollection = "user-progress"

// Record is one user's progress on one video.
//
// WatchedPercent only ever grows, and Completed flips false->true exactly
// once; after that the record is terminal and no further writes occur.
// DurationSeconds is copied from the catalog at provisioning and never
// changes.
type Record struct {
	VideoID         string     `json:"-"`
	WatchedPercent  int        `json:"watchedPercent"`
	Completed       bool       `json:"completed"`
	LastWatched     *time.Time `json:"lastWatched"`
	DurationSeconds int        `json:"duration"`
}

func userRootPath(userID string) string {
	return docstore.Path(rootCollection, userID)
}

func recordCollectionPath(userID string) string {
	return docstore.Path(rootCollection, userID, "progress")
}

func recordPath(userID, videoID string) string {
	return docstore.Path(rootCollection, userID, "progress", videoID)
}
