package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/backend"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 500 {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			"status", status, "url", r.URL.Path, "message", msg)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps sentinel errors from the stores onto HTTP
// statuses. Unknown errors are reported as 500 without leaking details.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrEmptyName):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, backend.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, backend.ErrEmailNotConfirmed):
		writeError(w, r, http.StatusForbidden, "email address not confirmed")
	case errors.Is(err, backend.ErrAlreadyRegistered):
		writeError(w, r, http.StatusConflict, "email address already registered")
	case errors.Is(err, backend.ErrUserNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, backend.ErrNoSession):
		writeError(w, r, http.StatusUnauthorized, "no active session")
	case errors.Is(err, backend.ErrServiceUnavailable),
		errors.Is(err, session.ErrProfileCreateFailed):
		writeError(w, r, http.StatusBadGateway, "backend unavailable, try again later")
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Unhandled error", "error", err, "url", r.URL.Path)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
