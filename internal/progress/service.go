package progress

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/olympia-platform/internal/catalog"
	"github.com/example/olympia-platform/internal/docstore"
)

// VideoSource yields the catalog videos a new user is provisioned against.
type VideoSource interface {
	Videos(ctx context.Context) ([]catalog.Video, error)
}

// Service provisions and reads a user's progress records.
type Service struct {
	store  docstore.Store
	videos VideoSource
	log    *zap.Logger
}

func NewService(store docstore.Store, videos VideoSource, log *zap.Logger) *Service {
	return &Service{store: store, videos: videos, log: log}
}

// Provision creates the user's root document and one zero record per catalog
// video. The root document's existence marks the user as provisioned, so
// repeated calls are no-ops.
func (s *Service) Provision(ctx context.Context, userID string) error {
	if _, err := s.store.Get(ctx, userRootPath(userID)); err == nil {
		return nil
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return err
	}

	videos, err := s.videos.Videos(ctx)
	if err != nil {
		return err
	}

	if err := s.store.UpsertMerge(ctx, userRootPath(userID), docstore.Document{}); err != nil {
		return err
	}
	for _, v := range videos {
		err := s.store.UpsertMerge(ctx, recordPath(userID, v.ID), docstore.Document{
			"watchedPercent": 0,
			"completed":      false,
			"lastWatched":    nil,
			"duration":       v.DurationSeconds,
		})
		if err != nil {
			return err
		}
	}
	s.log.Info("progress: user provisioned",
		zap.String("user_id", userID), zap.Int("videos", len(videos)))
	return nil
}

// Records returns every progress record the user has, keyed back to video ids.
func (s *Service) Records(ctx context.Context, userID string) ([]Record, error) {
	entries, err := s.store.ListCollection(ctx, recordCollectionPath(userID))
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		var r Record
		if err := docstore.Decode(e.Doc, &r); err != nil {
			return nil, err
		}
		r.VideoID = e.ID()
		out = append(out, r)
	}
	return out, nil
}

// Summary derives the course completion view from the user's records.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	records, err := s.Records(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return ComputeSummary(records), nil
}
