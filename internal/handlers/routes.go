package handlers

import (
	"net/http"

	"github.com/vidbrowse/backend/internal/repositories"
	"github.com/vidbrowse/backend/internal/storage"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Catalog    Catalog
	Nav        Navigator
	Marks      MarkStore
	Users      UserStore
	Sessions   SessionManager
	Jobs       JobRunner
	Thumbnails storage.Storage

	LoginLimiter RateLimiter

	MediaDir        string
	DefaultPageSize int
	MaxPageSize     int
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.LoginLimiter}
	videos := VideoHandler{
		Catalog:         deps.Catalog,
		Nav:             deps.Nav,
		Thumbnails:      deps.Thumbnails,
		MediaDir:        deps.MediaDir,
		DefaultPageSize: deps.DefaultPageSize,
		MaxPageSize:     deps.MaxPageSize,
	}
	favorites := MarkHandler{
		Set:             repositories.MarkFavorites,
		Marks:           deps.Marks,
		Nav:             deps.Nav,
		DefaultPageSize: deps.DefaultPageSize,
		MaxPageSize:     deps.MaxPageSize,
	}
	dislikes := MarkHandler{
		Set:             repositories.MarkDislikes,
		Marks:           deps.Marks,
		DefaultPageSize: deps.DefaultPageSize,
		MaxPageSize:     deps.MaxPageSize,
	}
	admin := AdminHandler{Sessions: deps.Sessions, Users: deps.Users, Jobs: deps.Jobs}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/login", authH.Login)
	mux.HandleFunc("POST /api/change-password", authH.ChangePassword)

	mux.HandleFunc("GET /api/videos", videos.List)
	mux.HandleFunc("GET /api/videos/{id}", videos.Detail)
	mux.HandleFunc("GET /api/videos/next/{id}", videos.Next)
	mux.HandleFunc("GET /api/videos/prev/{id}", videos.Previous)
	mux.HandleFunc("GET /api/videos/file/{filename...}", videos.File)
	mux.HandleFunc("GET /api/thumbnail/{id}", videos.Thumbnail)

	mux.HandleFunc("GET /api/favorites", favorites.List)
	mux.HandleFunc("GET /api/favorites/check", favorites.Check)
	mux.HandleFunc("POST /api/favorites", favorites.Add)
	mux.HandleFunc("DELETE /api/favorites", favorites.Remove)
	mux.HandleFunc("GET /api/favorites/navigation/{id}", favorites.Navigation)

	mux.HandleFunc("GET /api/dislikes", dislikes.List)
	mux.HandleFunc("GET /api/dislikes/check", dislikes.Check)
	mux.HandleFunc("POST /api/dislikes", dislikes.Add)
	mux.HandleFunc("DELETE /api/dislikes", dislikes.Remove)

	mux.HandleFunc("POST /api/admin/refresh-files", admin.RefreshFiles)
	mux.HandleFunc("GET /api/admin/refresh-status", admin.RefreshStatus)
	mux.HandleFunc("POST /api/admin/generate-thumbnails", admin.GenerateThumbnails)
	mux.HandleFunc("GET /api/admin/thumbnail-status", admin.ThumbnailStatus)
	mux.HandleFunc("DELETE /api/admin/delete-all-dislike-content", admin.DeleteDislikeContent)
}
