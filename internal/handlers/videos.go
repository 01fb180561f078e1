package handlers

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/vidbrowse/backend/internal/browse"
	"github.com/vidbrowse/backend/internal/catalog"
	"github.com/vidbrowse/backend/internal/logging"
	"github.com/vidbrowse/backend/internal/models"
	"github.com/vidbrowse/backend/internal/storage"
)

// VideoHandler provides listing, detail, navigation, and media serving
// endpoints.
type VideoHandler struct {
	Catalog    Catalog
	Nav        Navigator
	Thumbnails storage.Storage
	MediaDir   string

	DefaultPageSize int
	MaxPageSize     int
}

type videoDetail struct {
	models.VideoRecord
	URL    string `json:"url"`
	NextID *int64 `json:"next_id"`
}

func (h VideoHandler) detail(rec models.VideoRecord, nextID *int64) videoDetail {
	return videoDetail{
		VideoRecord: rec,
		URL:         "/api/videos/file/" + url.PathEscape(rec.Path()),
		NextID:      nextID,
	}
}

// List handles GET /api/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

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

	random := false
	if raw := query.Get("random"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "random must be a boolean"})
			return
		}
		random = parsed
	}

	result := h.Catalog.Page(catalog.PageRequest{
		Number: page,
		Size:   size,
		Random: random,
		Seed:   query.Get("seed"),
	}, h.MaxPageSize)

	respondJSON(ctx, w, http.StatusOK, result)
}

// Detail handles GET /api/videos/{id}. The response carries next_id in
// global order so the player can chain straight into the next video.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := parseID(r.PathValue("id"))
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid video id"})
		return
	}

	rec, err := h.Catalog.Get(id)
	if err != nil || rec.Missing {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		return
	}

	var nextID *int64
	if next, err := h.Nav.Next(ctx, id, browse.Global); err == nil {
		nextID = &next.ID
	}

	respondJSON(ctx, w, http.StatusOK, h.detail(rec, nextID))
}

// Next handles GET /api/videos/next/{id}; an optional dir query narrows
// the scope to one directory.
func (h VideoHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.neighbor(w, r, h.Nav.Next)
}

// Previous handles GET /api/videos/prev/{id}.
func (h VideoHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.neighbor(w, r, h.Nav.Previous)
}

func (h VideoHandler) neighbor(w http.ResponseWriter, r *http.Request, resolve func(ctx context.Context, id int64, scope browse.Scope) (models.VideoRecord, error)) {
	ctx := r.Context()

	id, ok := parseID(r.PathValue("id"))
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid video id"})
		return
	}

	scope := browse.Global
	if dir := r.URL.Query().Get("dir"); dir != "" {
		scope = browse.InDirectory(dir)
	}

	rec, err := resolve(ctx, id, scope)
	if err != nil {
		respondError(ctx, w, err, "no adjacent video")
		return
	}

	var nextID *int64
	if next, err := h.Nav.Next(ctx, rec.ID, scope); err == nil {
		nextID = &next.ID
	}

	respondJSON(ctx, w, http.StatusOK, h.detail(rec, nextID))
}

// File handles GET /api/videos/file/{filename...}. Only files the
// catalog knows about are served; the record path is joined under the
// media root, so arbitrary paths never reach the filesystem.
func (h VideoHandler) File(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := r.PathValue("filename")
	rec, err := h.Catalog.GetByPath(name)
	if err != nil || rec.Missing {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		return
	}

	http.ServeFile(w, r, filepath.Join(h.MediaDir, filepath.FromSlash(rec.Path())))
}

// Thumbnail handles GET /api/thumbnail/{id}.
func (h VideoHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := parseID(r.PathValue("id"))
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid video id"})
		return
	}

	rec, err := h.Catalog.Get(id)
	if err != nil || !rec.HasThumbnail {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "thumbnail not found"})
		return
	}

	if h.Thumbnails == nil {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "thumbnail not found"})
		return
	}

	rc, err := h.Thumbnails.Open(ctx, strconv.FormatInt(id, 10)+".jpg")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "thumbnail not found"})
			return
		}
		respondError(ctx, w, err, "unable to load thumbnail")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := io.Copy(w, rc); err != nil {
		logging.FromContext(ctx).Warn("stream thumbnail", "id", id, "error", err)
	}
}

func parsePositiveInt(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
