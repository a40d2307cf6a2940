// Package problems records which olympiad problems a user has solved and the
// reflection they wrote after solving.
package problems

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/olympia-platform/internal/docstore"
	"github.com/example/olympia-platform/internal/platform/events"
)

const rootCollection = "problems-progress"

// ErrEmptyReflection marks a submission whose text was empty after trimming.
// Callers treat it as a skip, not a failure.
var ErrEmptyReflection = errors.New("problems: reflection text is empty")

// ErrNotFound is returned when the user has no reflection for a problem.
var ErrNotFound = errors.New("problems: reflection not found")

// Reflection is what a user wrote after solving a problem. Its presence under
// the solved collection is what marks the problem solved.
type Reflection struct {
	Respond   string    `json:"respond"`
	Timestamp time.Time `json:"timestamp"`
}

// Service reads and writes per-user solved state.
type Service struct {
	store  docstore.Store
	events *events.Publisher
	log    *zap.Logger
}

func NewService(store docstore.Store, pub *events.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, events: pub, log: log}
}

func solvedCollectionPath(userID string) string {
	return docstore.Path(rootCollection, userID, "solved")
}

func reflectionPath(userID, problemID string) string {
	return docstore.Path(rootCollection, userID, "solved", problemID)
}

// SubmitReflection stores the user's reflection and marks the problem solved.
// Submitting again overwrites the text and refreshes the timestamp; the merge
// write makes first submission and edit the same operation.
func (s *Service) SubmitReflection(ctx context.Context, userID, problemID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyReflection
	}

	_, err := s.store.Get(ctx, reflectionPath(userID, problemID))
	firstSolve := errors.Is(err, docstore.ErrNotFound)

	err = s.store.UpsertMerge(ctx, reflectionPath(userID, problemID), docstore.Document{
		"respond":   text,
		"timestamp": time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if firstSolve {
		s.events.Publish(events.SubjectProblemSolved, "problem_solved", userID, map[string]any{
			"problem_id": problemID,
		})
	}
	return nil
}

// Reflection returns the stored reflection for one problem.
func (s *Service) Reflection(ctx context.Context, userID, problemID string) (Reflection, error) {
	doc, err := s.store.Get(ctx, reflectionPath(userID, problemID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Reflection{}, ErrNotFound
		}
		return Reflection{}, err
	}
	var r Reflection
	if err := docstore.Decode(doc, &r); err != nil {
		return Reflection{}, err
	}
	return r, nil
}

// ListSolvedProblemIDs returns the set of problems the user has solved.
func (s *Service) ListSolvedProblemIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	entries, err := s.store.ListCollection(ctx, solvedCollectionPath(userID))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		ids[e.ID()] = struct{}{}
	}
	return ids, nil
}

// WatchSolvedProblemIDs invokes fn with the full solved set after every
// change, until the returned cancel func is called.
func (s *Service) WatchSolvedProblemIDs(userID string, fn func(ids map[string]struct{})) (cancel func()) {
	return s.store.Subscribe(solvedCollectionPath(userID), func(entries []docstore.Entry) {
		ids := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			ids[e.ID()] = struct{}{}
		}
		fn(ids)
	})
}
