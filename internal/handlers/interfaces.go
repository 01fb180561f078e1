package handlers

import (
	"context"

	"github.com/vidbrowse/backend/internal/auth"
	"github.com/vidbrowse/backend/internal/browse"
	"github.com/vidbrowse/backend/internal/catalog"
	"github.com/vidbrowse/backend/internal/jobs"
	"github.com/vidbrowse/backend/internal/models"
	"github.com/vidbrowse/backend/internal/repositories"
)

// Catalog captures the read operations handlers need from the video index.
type Catalog interface {
	Page(req catalog.PageRequest, maxSize int) models.Page
	Get(id int64) (models.VideoRecord, error)
	GetByPath(path string) (models.VideoRecord, error)
}

// Navigator resolves next/previous within a navigation scope.
type Navigator interface {
	Next(ctx context.Context, id int64, scope browse.Scope) (models.VideoRecord, error)
	Previous(ctx context.Context, id int64, scope browse.Scope) (models.VideoRecord, error)
}

// MarkStore captures operations required by the favorites and dislikes handlers.
type MarkStore interface {
	Add(ctx context.Context, set repositories.MarkSet, userID string, videoID int64) error
	Remove(ctx context.Context, set repositories.MarkSet, userID string, videoID int64) error
	IsMarked(ctx context.Context, set repositories.MarkSet, userID string, videoID int64) (bool, error)
	List(ctx context.Context, set repositories.MarkSet, userID string, page, size int) (models.Page, error)
}

// SessionManager issues and validates bearer tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (auth.Session, error)
	Validate(ctx context.Context, token string) (string, error)
}

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// JobRunner starts maintenance jobs and reports their state.
type JobRunner interface {
	StartRefresh() (jobs.Job, error)
	StartThumbnails() (jobs.Job, error)
	StartDislikePurge(userID string) (jobs.Job, error)
	Status(kind jobs.Kind) (jobs.Job, bool)
}
