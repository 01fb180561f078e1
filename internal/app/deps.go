package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidbrowse/backend/internal/auth"
	"github.com/vidbrowse/backend/internal/browse"
	"github.com/vidbrowse/backend/internal/catalog"
	"github.com/vidbrowse/backend/internal/config"
	"github.com/vidbrowse/backend/internal/db"
	"github.com/vidbrowse/backend/internal/handlers"
	"github.com/vidbrowse/backend/internal/jobs"
	"github.com/vidbrowse/backend/internal/marks"
	"github.com/vidbrowse/backend/internal/middleware"
	"github.com/vidbrowse/backend/internal/repositories"
	"github.com/vidbrowse/backend/internal/scan"
	"github.com/vidbrowse/backend/internal/storage"
	"github.com/vidbrowse/backend/internal/thumbs"
)

// buildDependencies assembles the object graph for the serve command.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *jobs.Runner, error) {
	videoRepo := repositories.NewPostgresVideoRepository(pool)
	markRepo := repositories.NewPostgresMarkRepository(pool)
	userRepo := repositories.NewPostgresUserRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	index := catalog.New(videoRepo)
	if err := index.Load(ctx); err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("load catalog: %w", err)
	}

	markSvc := marks.NewService(markRepo, index)
	resolver := browse.NewResolver(index, markRepo)
	sessions := auth.NewManager(cfg.SessionTTL, sessionStore)

	thumbStore, err := buildThumbnailStorage(ctx, cfg)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	generator := thumbs.NewGenerator(cfg.FFmpegPath, cfg.FFprobePath, cfg.FFmpegTimeout)
	scanner := scan.New(cfg.MediaDir)

	tracker := jobs.NewTracker(cfg.JobRetention, cfg.JobStallTimeout)
	runner := jobs.NewRunner(tracker, index, scanner, generator, thumbStore, markSvc, cfg.MediaDir, logger)

	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRatePerMin, time.Minute, cfg.LoginRateBurst, 15*time.Minute)

	deps := handlers.Dependencies{
		Catalog:         index,
		Nav:             resolver,
		Marks:           markSvc,
		Users:           userRepo,
		Sessions:        sessions,
		Jobs:            runner,
		Thumbnails:      thumbStore,
		LoginLimiter:    loginLimiter,
		MediaDir:        cfg.MediaDir,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	}

	return deps, runner, nil
}

// buildThumbnailStorage picks the thumbnail backend: an S3-compatible
// bucket when one is configured, local disk otherwise.
func buildThumbnailStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	if cfg.ObjectStore.Bucket != "" {
		s3Store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, fmt.Errorf("configure object storage: %w", err)
		}
		return s3Store, nil
	}
	return storage.NewLocalStorage(cfg.ThumbnailDir), nil
}
