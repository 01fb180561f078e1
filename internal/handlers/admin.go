package handlers

import (
	"net/http"

	"github.com/vidbrowse/backend/internal/jobs"
	"github.com/vidbrowse/backend/internal/logging"
	"github.com/vidbrowse/backend/internal/models"
)

// AdminHandler exposes maintenance job endpoints. Every route requires
// a bearer token resolving to an admin account.
type AdminHandler struct {
	Sessions SessionManager
	Users    UserStore
	Jobs     JobRunner
}

func (h AdminHandler) authorize(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, err := h.Sessions.Validate(ctx, bearerToken(r))
	if err != nil {
		logger.Warn("admin request unauthorized", "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.User{}, false
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		logger.Warn("admin user lookup failed", "userId", userID, "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.User{}, false
	}

	if !user.IsAdmin {
		logger.Warn("admin access denied", "userId", userID)
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "admin privileges required"})
		return models.User{}, false
	}

	return user, true
}

// RefreshFiles handles POST /api/admin/refresh-files.
func (h AdminHandler) RefreshFiles(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	h.startJob(w, r, h.Jobs.StartRefresh)
}

// RefreshStatus handles GET /api/admin/refresh-status.
func (h AdminHandler) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	h.jobStatus(w, r, jobs.KindRefresh)
}

// GenerateThumbnails handles POST /api/admin/generate-thumbnails.
func (h AdminHandler) GenerateThumbnails(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	h.startJob(w, r, h.Jobs.StartThumbnails)
}

// ThumbnailStatus handles GET /api/admin/thumbnail-status.
func (h AdminHandler) ThumbnailStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}
	h.jobStatus(w, r, jobs.KindThumbnails)
}

// DeleteDislikeContent handles DELETE /api/admin/delete-all-dislike-content.
// The purge targets the requesting admin's own dislike set.
func (h AdminHandler) DeleteDislikeContent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authorize(w, r)
	if !ok {
		return
	}
	h.startJob(w, r, func() (jobs.Job, error) {
		return h.Jobs.StartDislikePurge(user.ID)
	})
}

func (h AdminHandler) startJob(w http.ResponseWriter, r *http.Request, start func() (jobs.Job, error)) {
	ctx := r.Context()

	job, err := start()
	if err != nil {
		respondError(ctx, w, err, "a job of this kind is already running")
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, job)
}

func (h AdminHandler) jobStatus(w http.ResponseWriter, r *http.Request, kind jobs.Kind) {
	ctx := r.Context()

	job, ok := h.Jobs.Status(kind)
	if !ok {
		respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "idle"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, job)
}
