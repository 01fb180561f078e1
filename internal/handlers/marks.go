package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidbrowse/backend/internal/browse"
	"github.com/vidbrowse/backend/internal/models"
	"github.com/vidbrowse/backend/internal/repositories"
)

// MarkHandler serves one mark set. It is registered twice, once for
// favorites and once for dislikes; only favorites get the navigation
// endpoint.
type MarkHandler struct {
	Set   repositories.MarkSet
	Marks MarkStore
	Nav   Navigator

	DefaultPageSize int
	MaxPageSize     int
}

type markRequest struct {
	UserID  string `json:"user_id"`
	VideoID int64  `json:"video_id"`
}

// List handles GET /api/{set}?user_id=&page=&per_page=.
func (h MarkHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	userID := query.Get("user_id")
	if userID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	page, ok := parsePositiveInt(query.Get("page"), 1)
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "page must be a positive integer"})
		return
	}

	size, ok := parsePositiveInt(query.Get("per_page"), h.DefaultPageSize)
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "per_page must be a positive integer"})
		return
	}
	if h.MaxPageSize > 0 && size > h.MaxPageSize {
		size = h.MaxPageSize
	}

	result, err := h.Marks.List(ctx, h.Set, userID, page, size)
	if err != nil {
		respondError(ctx, w, err, "unable to list marks")
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// Check handles GET /api/{set}/check?user_id=&video_id=.
func (h MarkHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	userID := query.Get("user_id")
	videoID, ok := parseID(query.Get("video_id"))
	if userID == "" || !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "user_id and video_id are required"})
		return
	}

	marked, err := h.Marks.IsMarked(ctx, h.Set, userID, videoID)
	if err != nil {
		respondError(ctx, w, err, "unable to check mark")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"marked": marked})
}

// Add handles POST /api/{set}. Re-adding an existing mark succeeds.
func (h MarkHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req markRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.UserID == "" || req.VideoID < 1 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "user_id and video_id are required"})
		return
	}

	if err := h.Marks.Add(ctx, h.Set, req.UserID, req.VideoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		respondError(ctx, w, err, "unable to add mark")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"status": "ok"})
}

// Remove handles DELETE /api/{set}?user_id=&video_id=.
func (h MarkHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	userID := query.Get("user_id")
	videoID, ok := parseID(query.Get("video_id"))
	if userID == "" || !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "user_id and video_id are required"})
		return
	}

	if err := h.Marks.Remove(ctx, h.Set, userID, videoID); err != nil {
		respondError(ctx, w, err, "unable to remove mark")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type navigationResponse struct {
	Previous *models.VideoRecord `json:"previous"`
	Next     *models.VideoRecord `json:"next"`
}

// Navigation handles GET /api/favorites/navigation/{id}?user_id=.
// Both neighbors are resolved in the user's favorites order; a video
// outside that set is a NotFound, not a jump to the list edge.
func (h MarkHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, ok := parseID(r.PathValue("id"))
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid video id"})
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	marked, err := h.Marks.IsMarked(ctx, h.Set, userID, videoID)
	if err != nil {
		respondError(ctx, w, err, "unable to resolve navigation")
		return
	}
	if !marked {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video is not in favorites"})
		return
	}

	scope := browse.InFavorites(userID)
	var resp navigationResponse

	if prev, err := h.Nav.Previous(ctx, videoID, scope); err == nil {
		resp.Previous = &prev
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, err, "unable to resolve navigation")
		return
	}

	if next, err := h.Nav.Next(ctx, videoID, scope); err == nil {
		resp.Next = &next
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, err, "unable to resolve navigation")
		return
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}
