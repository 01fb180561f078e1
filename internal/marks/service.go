// Package marks implements the favorites and dislikes store: two
// independent per-user sets of video ids. A video may be in both sets
// at once; nothing in the contract forbids it.
package marks

import (
	"context"
	"fmt"
	"time"

	"github.com/vidbrowse/backend/internal/catalog"
	"github.com/vidbrowse/backend/internal/models"
	"github.com/vidbrowse/backend/internal/repositories"
)

// Service enforces existence checks on top of the mark repository:
// marks may only reference videos the catalog currently knows and has
// not flagged missing.
type Service struct {
	repo    repositories.MarkRepository
	catalog *catalog.Index

	nowFunc func() time.Time
}

// NewService constructs the mark service.
func NewService(repo repositories.MarkRepository, idx *catalog.Index) *Service {
	return &Service{repo: repo, catalog: idx, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// Add marks a video for the user. Adding an existing mark is a no-op.
// Marking a missing or unknown video fails with ErrNotFound.
func (s *Service) Add(ctx context.Context, set repositories.MarkSet, userID string, videoID int64) error {
	rec, err := s.catalog.Get(videoID)
	if err != nil {
		return err
	}
	if rec.Missing {
		return repositories.ErrNotFound
	}

	entry := models.MarkEntry{UserID: userID, VideoID: videoID, CreatedAt: s.nowFunc()}
	if err := s.repo.Add(ctx, set, entry); err != nil {
		return fmt.Errorf("add %s mark: %w", set, err)
	}
	return nil
}

// Remove clears a mark. Removing an absent mark is a no-op.
func (s *Service) Remove(ctx context.Context, set repositories.MarkSet, userID string, videoID int64) error {
	if err := s.repo.Remove(ctx, set, userID, videoID); err != nil {
		return fmt.Errorf("remove %s mark: %w", set, err)
	}
	return nil
}

// IsMarked reports whether the user has marked the video.
func (s *Service) IsMarked(ctx context.Context, set repositories.MarkSet, userID string, videoID int64) (bool, error) {
	return s.repo.IsMarked(ctx, set, userID, videoID)
}

// List returns one page of the user's marked videos, ordered by when
// each mark was created. Entries whose record has gone missing are
// skipped rather than surfaced as holes.
func (s *Service) List(ctx context.Context, set repositories.MarkSet, userID string, page, size int) (models.Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}

	entries, err := s.repo.ListForUser(ctx, set, userID)
	if err != nil {
		return models.Page{}, fmt.Errorf("list %s marks: %w", set, err)
	}

	videos := make([]models.VideoRecord, 0, len(entries))
	for _, entry := range entries {
		rec, err := s.catalog.Get(entry.VideoID)
		if err != nil || rec.Missing {
			continue
		}
		videos = append(videos, rec)
	}

	out := models.Page{Number: page, Size: size, Videos: []models.VideoRecord{}}
	lo := (page - 1) * size
	hi := lo + size
	switch {
	case lo >= len(videos):
	case hi >= len(videos):
		out.Videos = videos[lo:]
	default:
		out.Videos = videos[lo:hi]
		out.HasMore = true
	}

	return out, nil
}

// ListEntries exposes the raw ordered entries of a set, used by the
// dislike purge job.
func (s *Service) ListEntries(ctx context.Context, set repositories.MarkSet, userID string) ([]models.MarkEntry, error) {
	return s.repo.ListForUser(ctx, set, userID)
}

// PurgeVideo removes every mark referencing the video from both sets.
// Called when a record is permanently deleted.
func (s *Service) PurgeVideo(ctx context.Context, videoID int64) error {
	return s.repo.PurgeVideo(ctx, videoID)
}
