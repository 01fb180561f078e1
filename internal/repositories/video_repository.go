package repositories

import (
	"context"

	"github.com/vidbrowse/backend/internal/models"
)

// VideoRepository persists catalog records. The in-memory index is the
// source of truth at runtime; the repository is its durable backing.
type VideoRepository interface {
	ListAll(ctx context.Context) ([]models.VideoRecord, error)
	Save(ctx context.Context, record models.VideoRecord) error
	Delete(ctx context.Context, id int64) error
}
