package jobs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vidbrowse/backend/internal/catalog"
	"github.com/vidbrowse/backend/internal/marks"
	"github.com/vidbrowse/backend/internal/models"
	"github.com/vidbrowse/backend/internal/repositories"
	"github.com/vidbrowse/backend/internal/scan"
	"github.com/vidbrowse/backend/internal/storage"
)

// MediaScanner enumerates video files under the media root.
type MediaScanner interface {
	ScanVideos() ([]scan.FileInfo, error)
}

// Thumbnailer produces thumbnail frames and probes durations.
type Thumbnailer interface {
	Capture(ctx context.Context, videoPath string) ([]byte, error)
	Duration(ctx context.Context, videoPath string) (float64, error)
}

// Runner executes maintenance jobs in the background, reporting
// progress through the Tracker. One Runner serves all kinds; the
// Tracker's per-kind slot keeps concurrent duplicates out.
type Runner struct {
	tracker *Tracker
	catalog *catalog.Index
	scanner MediaScanner
	thumbs  Thumbnailer
	store   storage.Storage
	marks   *marks.Service

	mediaDir string
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewRunner wires a Runner. thumbs and store may be nil, which disables
// duration probing and makes thumbnail jobs fail upfront.
func NewRunner(tracker *Tracker, idx *catalog.Index, scanner MediaScanner, thumbs Thumbnailer, store storage.Storage, markSvc *marks.Service, mediaDir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		tracker:  tracker,
		catalog:  idx,
		scanner:  scanner,
		thumbs:   thumbs,
		store:    store,
		marks:    markSvc,
		mediaDir: mediaDir,
		logger:   logger,
	}
}

// Tracker exposes the underlying tracker for status polling.
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// Status returns the active or latest tracked job of a kind.
func (r *Runner) Status(kind Kind) (Job, bool) {
	return r.tracker.Latest(kind)
}

// Wait blocks until all in-flight job goroutines finish. Used during
// shutdown and by tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// StartRefresh begins a media rescan job.
func (r *Runner) StartRefresh() (Job, error) {
	job, err := r.tracker.Start(KindRefresh)
	if err != nil {
		return Job{}, err
	}
	r.spawn(job, r.runRefresh)
	return job, nil
}

// StartThumbnails begins a thumbnail generation job.
func (r *Runner) StartThumbnails() (Job, error) {
	job, err := r.tracker.Start(KindThumbnails)
	if err != nil {
		return Job{}, err
	}
	r.spawn(job, r.runThumbnails)
	return job, nil
}

// StartDislikePurge begins removal of all content the user disliked.
func (r *Runner) StartDislikePurge(userID string) (Job, error) {
	job, err := r.tracker.Start(KindDislikePurge)
	if err != nil {
		return Job{}, err
	}
	r.spawn(job, func(job Job) {
		r.runDislikePurge(job, userID)
	})
	return job, nil
}

// spawn runs the worker on a fresh goroutine. Workers use a background
// context: a job outlives the HTTP request that started it.
func (r *Runner) spawn(job Job, run func(Job)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("job panicked", "job_id", job.ID, "kind", job.Kind, "panic", rec)
				_ = r.tracker.Fail(job.ID, fmt.Sprintf("panic: %v", rec))
			}
		}()
		run(job)
	}()
}

func (r *Runner) runRefresh(job Job) {
	ctx := context.Background()
	logger := r.logger.With("job_id", job.ID, "kind", string(job.Kind))

	_ = r.tracker.Advance(job.ID, 0, 0, false)

	files, err := r.scanner.ScanVideos()
	if err != nil {
		logger.Error("media scan failed", "error", err)
		_ = r.tracker.Fail(job.ID, err.Error())
		return
	}

	total := len(files)
	seen := make(map[string]struct{}, total)
	for processed, f := range files {
		seen[f.RelPath] = struct{}{}
		if err := r.ingest(ctx, f); err != nil {
			logger.Error("ingest file", "path", f.RelPath, "error", err)
		}
		_ = r.tracker.Advance(job.ID, processed+1, total, true)
	}

	for _, rec := range r.catalog.Snapshot().All() {
		if rec.Missing {
			continue
		}
		if _, ok := seen[rec.Path()]; !ok {
			if err := r.catalog.MarkMissing(ctx, rec.ID); err != nil {
				logger.Error("mark record missing", "id", rec.ID, "error", err)
			}
		}
	}

	_ = r.tracker.Complete(job.ID)
	logger.Info("refresh completed", "files", total)
}

// ingest reconciles one scanned file against the catalog. A file seen
// at a known path keeps its identifier; a missing record whose file
// reappeared is reinstated rather than recreated.
func (r *Runner) ingest(ctx context.Context, f scan.FileInfo) error {
	existing, err := r.catalog.GetByPath(f.RelPath)
	if err == nil {
		if !existing.Missing && existing.SizeBytes == f.Size {
			return nil
		}
		existing.Missing = false
		existing.SizeBytes = f.Size
		_, err := r.catalog.Upsert(ctx, existing)
		return err
	}

	rec := models.VideoRecord{
		Filename:  f.Name,
		DirPath:   f.Dir,
		SizeBytes: f.Size,
	}
	if r.thumbs != nil {
		if secs, err := r.thumbs.Duration(ctx, r.mediaPath(f.RelPath)); err == nil {
			rec.DurationSecs = secs
		}
	}

	_, err = r.catalog.Upsert(ctx, rec)
	return err
}

func (r *Runner) runThumbnails(job Job) {
	ctx := context.Background()
	logger := r.logger.With("job_id", job.ID, "kind", string(job.Kind))

	_ = r.tracker.Advance(job.ID, 0, 0, false)

	if r.thumbs == nil || r.store == nil {
		_ = r.tracker.Fail(job.ID, "thumbnail generation is not configured")
		return
	}

	var targets []models.VideoRecord
	for _, rec := range r.catalog.List() {
		if !rec.HasThumbnail {
			targets = append(targets, rec)
		}
	}

	total := len(targets)
	failures := 0
	for processed, rec := range targets {
		if err := r.generateThumbnail(ctx, rec); err != nil {
			failures++
			logger.Error("generate thumbnail", "id", rec.ID, "path", rec.Path(), "error", err)
		}
		_ = r.tracker.Advance(job.ID, processed+1, total, true)
	}

	if total > 0 && failures == total {
		_ = r.tracker.Fail(job.ID, fmt.Sprintf("all %d thumbnails failed", total))
		return
	}

	_ = r.tracker.Complete(job.ID)
	logger.Info("thumbnail generation completed", "generated", total-failures, "failed", failures)
}

func (r *Runner) generateThumbnail(ctx context.Context, rec models.VideoRecord) error {
	frame, err := r.thumbs.Capture(ctx, r.mediaPath(rec.Path()))
	if err != nil {
		return err
	}

	if _, err := r.store.Save(ctx, thumbnailKey(rec.ID), bytes.NewReader(frame)); err != nil {
		return err
	}

	return r.catalog.SetThumbnail(ctx, rec.ID, true)
}

func (r *Runner) runDislikePurge(job Job, userID string) {
	ctx := context.Background()
	logger := r.logger.With("job_id", job.ID, "kind", string(job.Kind), "user_id", userID)

	_ = r.tracker.Advance(job.ID, 0, 0, false)

	entries, err := r.marks.ListEntries(ctx, repositories.MarkDislikes, userID)
	if err != nil {
		logger.Error("list dislikes", "error", err)
		_ = r.tracker.Fail(job.ID, err.Error())
		return
	}

	total := len(entries)
	for processed, entry := range entries {
		if err := r.purgeVideo(ctx, entry.VideoID); err != nil {
			logger.Error("purge disliked video", "id", entry.VideoID, "error", err)
		}
		_ = r.tracker.Advance(job.ID, processed+1, total, true)
	}

	_ = r.tracker.Complete(job.ID)
	logger.Info("dislike purge completed", "purged", total)
}

// purgeVideo removes the backing file, the thumbnail, the catalog
// record, and every mark referencing it, in that order. The id is
// never handed out again.
func (r *Runner) purgeVideo(ctx context.Context, id int64) error {
	rec, err := r.catalog.Get(id)
	if err != nil {
		return err
	}

	if err := os.Remove(r.mediaPath(rec.Path())); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file: %w", err)
	}

	if r.store != nil {
		if err := r.store.Remove(ctx, thumbnailKey(id)); err != nil {
			return fmt.Errorf("remove thumbnail: %w", err)
		}
	}

	if err := r.catalog.Purge(ctx, id); err != nil {
		return err
	}

	return r.marks.PurgeVideo(ctx, id)
}

func (r *Runner) mediaPath(rel string) string {
	return filepath.Join(r.mediaDir, filepath.FromSlash(rel))
}

func thumbnailKey(id int64) string {
	return fmt.Sprintf("%d.jpg", id)
}
