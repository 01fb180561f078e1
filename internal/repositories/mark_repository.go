package repositories

import (
	"context"

	"github.com/vidbrowse/backend/internal/models"
)

// MarkSet selects which of the two independent mark sets an operation
// targets. Favorites and dislikes share one contract and one schema
// shape but never influence each other.
type MarkSet string

const (
	MarkFavorites MarkSet = "favorites"
	MarkDislikes  MarkSet = "dislikes"
)

// MarkRepository defines data access for per-user video marks.
// Add and Remove are idempotent; listing is ordered by created_at
// ascending so navigation over favorites is stable.
type MarkRepository interface {
	Add(ctx context.Context, set MarkSet, entry models.MarkEntry) error
	Remove(ctx context.Context, set MarkSet, userID string, videoID int64) error
	IsMarked(ctx context.Context, set MarkSet, userID string, videoID int64) (bool, error)
	ListForUser(ctx context.Context, set MarkSet, userID string) ([]models.MarkEntry, error)
	PurgeVideo(ctx context.Context, videoID int64) error
}
