package httpapi

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/olympia-platform/internal/catalog"
	"github.com/example/olympia-platform/internal/media"
	"github.com/example/olympia-platform/internal/platform/api"
	"github.com/example/olympia-platform/internal/platform/httpserver"
	"github.com/example/olympia-platform/internal/problems"
)

// ListProblems returns the problem set, optionally filtered by topic, with
// the caller's solved state merged in.
func ListProblems(cat *catalog.Catalog, svc *problems.Service) http.HandlerFunc {
	type problemResponse struct {
		catalog.Problem
		Solved bool `json:"solved"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		var (
			list []catalog.Problem
			err  error
		)
		if topic := strings.TrimSpace(r.URL.Query().Get("topic")); topic != "" {
			list, err = cat.ProblemsByTopic(r.Context(), topic)
		} else {
			list, err = cat.Problems(r.Context())
		}
		if err != nil {
			api.Internal(w, rid)
			return
		}

		solved, err := svc.ListSolvedProblemIDs(r.Context(), uid)
		if err != nil {
			api.Internal(w, rid)
			return
		}

		out := make([]problemResponse, 0, len(list))
		for _, p := range list {
			_, isSolved := solved[p.ID]
			out = append(out, problemResponse{Problem: p, Solved: isSolved})
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"problems": out})
	}
}

type solutionResponse struct {
	Format   string          `json:"format"`
	PDFURL   string          `json:"pdf_url,omitempty"`
	VideoURL string          `json:"video_url,omitempty"`
	Blocks   []catalog.Block `json:"blocks,omitempty"`
}

// GetSolution looks up the worked solution for a problem and resolves its
// stored media into fetchable URLs. A missing solution is the caller's 404.
func GetSolution(cat *catalog.Catalog, resolver media.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		problemID := strings.TrimSpace(chi.URLParam(r, "problem_id"))
		if problemID == "" {
			api.BadRequest(w, "MISSING_ID", "problem_id is required", rid, nil)
			return
		}

		p, err := cat.Problem(r.Context(), problemID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				api.NotFound(w, "PROBLEM_NOT_FOUND", "Problem not found", rid)
				return
			}
			api.Internal(w, rid)
			return
		}

		sol, err := cat.Solution(r.Context(), p.SolutionRef)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				api.NotFound(w, "SOLUTION_NOT_FOUND", "Solution not available", rid)
				return
			}
			api.Internal(w, rid)
			return
		}

		resp := solutionResponse{Format: sol.Format, Blocks: sol.Blocks}
		if sol.PDFPath != "" {
			url, err := resolver.ResolveURL(r.Context(), uid, sol.PDFPath)
			if err != nil {
				api.Internal(w, rid)
				return
			}
			resp.PDFURL = url
		}
		if sol.VideoPath != "" {
			url, err := resolver.ResolveURL(r.Context(), uid, sol.VideoPath)
			if err != nil {
				api.Internal(w, rid)
				return
			}
			resp.VideoURL = url
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

type reflectionRequest struct {
	Respond string `json:"respond"`
}

// PutReflection records the caller's reflection for a problem. A blank
// submission is acknowledged but changes nothing.
func PutReflection(svc *problems.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		problemID := strings.TrimSpace(chi.URLParam(r, "problem_id"))
		if problemID == "" {
			api.BadRequest(w, "MISSING_ID", "problem_id is required", rid, nil)
			return
		}

		var req reflectionRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		err := svc.SubmitReflection(r.Context(), uid, problemID, req.Respond)
		if err != nil && !errors.Is(err, problems.ErrEmptyReflection) {
			api.Internal(w, rid)
			return
		}
		api.NoContent(w)
	}
}

// GetReflection returns the caller's stored reflection for a problem.
func GetReflection(svc *problems.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		problemID := strings.TrimSpace(chi.URLParam(r, "problem_id"))
		if problemID == "" {
			api.BadRequest(w, "MISSING_ID", "problem_id is required", rid, nil)
			return
		}

		refl, err := svc.Reflection(r.Context(), uid, problemID)
		if err != nil {
			if errors.Is(err, problems.ErrNotFound) {
				api.NotFound(w, "REFLECTION_NOT_FOUND", "No reflection for this problem", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, refl)
	}
}

// ListSolved returns the ids of every problem the caller has solved.
func ListSolved(svc *problems.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := userFrom(w, r, rid)
		if !ok {
			return
		}

		solved, err := svc.ListSolvedProblemIDs(r.Context(), uid)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		ids := make([]string, 0, len(solved))
		for id := range solved {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		api.WriteJSON(w, http.StatusOK, map[string]any{"problem_ids": ids})
	}
}
