package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidbrowse/backend/internal/auth"
	"github.com/vidbrowse/backend/internal/jobs"
	"github.com/vidbrowse/backend/internal/logging"
	"github.com/vidbrowse/backend/internal/repositories"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps layer sentinels onto HTTP statuses. message is what
// the client sees; the underlying error is logged, not leaked.
func respondError(ctx context.Context, w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, jobs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repositories.ErrConflict), errors.Is(err, jobs.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrSessionExpired):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("internal error", "error", err)
	}

	respondJSON(ctx, w, status, map[string]string{"error": message})
}
