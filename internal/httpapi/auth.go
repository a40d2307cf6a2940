package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/olympia-platform/internal/identity"
	"github.com/example/olympia-platform/internal/platform/api"
	"github.com/example/olympia-platform/internal/platform/auth"
	"github.com/example/olympia-platform/internal/platform/httpserver"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func writeIdentityError(w http.ResponseWriter, rid string, err error) {
	var verr *identity.ValidationError
	switch {
	case errors.As(err, &verr):
		api.BadRequest(w, "VALIDATION", "Invalid "+verr.Field, rid, map[string]any{verr.Field: verr.Reason})
	case errors.Is(err, identity.ErrConflict):
		api.Conflict(w, "USER_ALREADY_EXISTS", "User already exists", rid, nil)
	case errors.Is(err, identity.ErrInvalidCredentials):
		api.Unauthorized(w, "AUTH_INVALID_CREDENTIALS", "Invalid credentials", rid)
	case errors.Is(err, identity.ErrInvalidRefresh):
		api.Unauthorized(w, "AUTH_INVALID_REFRESH", "Invalid refresh token", rid)
	case errors.Is(err, identity.ErrNotFound):
		api.NotFound(w, "USER_NOT_FOUND", "User not found", rid)
	default:
		api.Internal(w, rid)
	}
}

func Register(svc *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req registerRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		sess, err := svc.Register(r.Context(), req.Email, req.Username, req.Password, r.UserAgent())
		if err != nil {
			writeIdentityError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, sess)
	}
}

func Login(svc *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req loginRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		sess, err := svc.Login(r.Context(), req.Login, req.Password, r.UserAgent())
		if err != nil {
			writeIdentityError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, sess)
	}
}

func Refresh(svc *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req refreshRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		sess, err := svc.Refresh(r.Context(), req.RefreshToken, r.UserAgent())
		if err != nil {
			writeIdentityError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, sess)
	}
}

func Logout(svc *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req refreshRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		if err := svc.Logout(r.Context(), req.RefreshToken); err != nil {
			writeIdentityError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}

func Me(svc *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok || strings.TrimSpace(uid) == "" {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		u, err := svc.Me(r.Context(), uid)
		if err != nil {
			writeIdentityError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, u)
	}
}
