package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vidbrowse/backend/internal/models"
	"github.com/vidbrowse/backend/internal/repositories"
)

// Store persists index mutations. The index works without one (memory
// only), which is what unit tests use.
type Store interface {
	ListAll(ctx context.Context) ([]models.VideoRecord, error)
	Save(ctx context.Context, record models.VideoRecord) error
	Delete(ctx context.Context, id int64) error
}

// Index is the canonical ordered set of video records. Writers
// serialize under a mutex and publish an immutable snapshot, so readers
// always observe a consistent view even while a scan is upserting.
type Index struct {
	mu      sync.Mutex
	snap    atomic.Pointer[Snapshot]
	nextID  int64
	store   Store
	nowFunc func() time.Time
}

// Snapshot is an immutable view of the index at one instant. All read
// paths (pagination, navigation, lookups) run against a snapshot.
type Snapshot struct {
	records []models.VideoRecord // discovery order, missing included
	byID    map[int64]int
	byPath  map[string]int
	visible int
}

// New constructs an empty index. store may be nil.
func New(store Store) *Index {
	idx := &Index{store: store, nextID: 1, nowFunc: func() time.Time { return time.Now().UTC() }}
	idx.snap.Store(emptySnapshot())
	return idx
}

func emptySnapshot() *Snapshot {
	return &Snapshot{byID: map[int64]int{}, byPath: map[string]int{}}
}

// Load hydrates the index from its store, replacing any current state.
func (i *Index) Load(ctx context.Context) error {
	if i.store == nil {
		return nil
	}

	records, err := i.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load video records: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	next := int64(1)
	for _, rec := range records {
		if rec.ID >= next {
			next = rec.ID + 1
		}
	}
	i.nextID = next
	i.snap.Store(buildSnapshot(records))
	return nil
}

// Snapshot returns the current immutable view.
func (i *Index) Snapshot() *Snapshot {
	return i.snap.Load()
}

// List returns all non-missing records in discovery order.
func (i *Index) List() []models.VideoRecord {
	return i.Snapshot().List()
}

// Count returns the number of non-missing records.
func (i *Index) Count() int {
	return i.Snapshot().Count()
}

// Get returns the record for id, including records marked missing so
// favorites referencing them still resolve metadata.
func (i *Index) Get(id int64) (models.VideoRecord, error) {
	return i.Snapshot().Get(id)
}

// GetByPath looks a record up by its media-root relative path.
func (i *Index) GetByPath(path string) (models.VideoRecord, error) {
	snap := i.Snapshot()
	pos, ok := snap.byPath[path]
	if !ok {
		return models.VideoRecord{}, repositories.ErrNotFound
	}
	return snap.records[pos], nil
}

// Upsert inserts or updates a record. A zero ID means a new record: the
// index assigns the next identifier and stamps CreatedAt. Updating by
// path with a zero ID reuses the existing record's identifier, so a
// file never resurfaces under a new id.
func (i *Index) Upsert(ctx context.Context, record models.VideoRecord) (models.VideoRecord, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	snap := i.snap.Load()
	records := cloneRecords(snap.records)

	if record.ID == 0 {
		if pos, ok := snap.byPath[record.Path()]; ok {
			record.ID = snap.records[pos].ID
			record.CreatedAt = snap.records[pos].CreatedAt
		} else {
			record.ID = i.nextID
			i.nextID++
			if record.CreatedAt.IsZero() {
				record.CreatedAt = i.nowFunc()
			}
		}
	} else if record.ID >= i.nextID {
		i.nextID = record.ID + 1
	}

	if pos, ok := snap.byID[record.ID]; ok {
		records[pos] = record
	} else {
		records = append(records, record)
	}

	if err := i.persist(ctx, record); err != nil {
		return models.VideoRecord{}, err
	}

	i.snap.Store(buildSnapshot(records))
	return record, nil
}

// MarkMissing flags the record whose backing file vanished. The record
// stays in the index so favorite and dislike references keep resolving.
func (i *Index) MarkMissing(ctx context.Context, id int64) error {
	return i.mutate(ctx, id, func(rec *models.VideoRecord) { rec.Missing = true })
}

// ClearMissing reinstates a record whose file reappeared at its old path.
func (i *Index) ClearMissing(ctx context.Context, id int64) error {
	return i.mutate(ctx, id, func(rec *models.VideoRecord) { rec.Missing = false })
}

// SetThumbnail records whether a thumbnail exists for the video.
func (i *Index) SetThumbnail(ctx context.Context, id int64, present bool) error {
	return i.mutate(ctx, id, func(rec *models.VideoRecord) { rec.HasThumbnail = present })
}

// Purge removes a record entirely. Identifiers are never handed out
// again; the id counter only moves forward.
func (i *Index) Purge(ctx context.Context, id int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	snap := i.snap.Load()
	pos, ok := snap.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}

	records := make([]models.VideoRecord, 0, len(snap.records)-1)
	records = append(records, snap.records[:pos]...)
	records = append(records, snap.records[pos+1:]...)

	if i.store != nil {
		if err := i.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete video record %d: %w", id, err)
		}
	}

	i.snap.Store(buildSnapshot(records))
	return nil
}

func (i *Index) mutate(ctx context.Context, id int64, apply func(*models.VideoRecord)) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	snap := i.snap.Load()
	pos, ok := snap.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}

	records := cloneRecords(snap.records)
	apply(&records[pos])

	if err := i.persist(ctx, records[pos]); err != nil {
		return err
	}

	i.snap.Store(buildSnapshot(records))
	return nil
}

func (i *Index) persist(ctx context.Context, record models.VideoRecord) error {
	if i.store == nil {
		return nil
	}
	if err := i.store.Save(ctx, record); err != nil {
		return fmt.Errorf("save video record %d: %w", record.ID, err)
	}
	return nil
}

func cloneRecords(records []models.VideoRecord) []models.VideoRecord {
	out := make([]models.VideoRecord, len(records))
	copy(out, records)
	return out
}

func buildSnapshot(records []models.VideoRecord) *Snapshot {
	snap := &Snapshot{
		records: records,
		byID:    make(map[int64]int, len(records)),
		byPath:  make(map[string]int, len(records)),
	}
	for pos, rec := range records {
		snap.byID[rec.ID] = pos
		snap.byPath[rec.Path()] = pos
		if !rec.Missing {
			snap.visible++
		}
	}
	return snap
}

// List returns the snapshot's non-missing records in discovery order.
func (s *Snapshot) List() []models.VideoRecord {
	out := make([]models.VideoRecord, 0, s.visible)
	for _, rec := range s.records {
		if !rec.Missing {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every record, missing ones included.
func (s *Snapshot) All() []models.VideoRecord {
	return cloneRecords(s.records)
}

// Count returns the number of non-missing records.
func (s *Snapshot) Count() int {
	return s.visible
}

// Get returns the record for id or ErrNotFound.
func (s *Snapshot) Get(id int64) (models.VideoRecord, error) {
	pos, ok := s.byID[id]
	if !ok {
		return models.VideoRecord{}, repositories.ErrNotFound
	}
	return s.records[pos], nil
}
