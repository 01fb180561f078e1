package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/vidbrowse/backend/internal/models"
)

// MemoryMarkRepository implements MarkRepository for tests and
// database-free local runs. Locking is per repository, which is
// coarser than the per-pair minimum the contract requires but trivially
// correct.
type MemoryMarkRepository struct {
	mu    sync.RWMutex
	marks map[MarkSet]map[string]map[int64]models.MarkEntry
}

// NewMemoryMarkRepository returns an empty in-memory mark repository.
func NewMemoryMarkRepository() *MemoryMarkRepository {
	return &MemoryMarkRepository{marks: map[MarkSet]map[string]map[int64]models.MarkEntry{
		MarkFavorites: {},
		MarkDislikes:  {},
	}}
}

// Add inserts a mark; adding an existing mark is a no-op.
func (r *MemoryMarkRepository) Add(_ context.Context, set MarkSet, entry models.MarkEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.marks[set]
	if !ok {
		return ErrNotFound
	}

	byVideo := users[entry.UserID]
	if byVideo == nil {
		byVideo = make(map[int64]models.MarkEntry)
		users[entry.UserID] = byVideo
	}
	if _, exists := byVideo[entry.VideoID]; exists {
		return nil
	}
	byVideo[entry.VideoID] = entry
	return nil
}

// Remove deletes a mark; removing an absent mark is a no-op.
func (r *MemoryMarkRepository) Remove(_ context.Context, set MarkSet, userID string, videoID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if byVideo, ok := r.marks[set][userID]; ok {
		delete(byVideo, videoID)
	}
	return nil
}

// IsMarked reports whether the (user, video) pair is in the set.
func (r *MemoryMarkRepository) IsMarked(_ context.Context, set MarkSet, userID string, videoID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byVideo, ok := r.marks[set][userID]
	if !ok {
		return false, nil
	}
	_, marked := byVideo[videoID]
	return marked, nil
}

// ListForUser returns the user's marks ordered by creation time ascending.
func (r *MemoryMarkRepository) ListForUser(_ context.Context, set MarkSet, userID string) ([]models.MarkEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byVideo := r.marks[set][userID]
	entries := make([]models.MarkEntry, 0, len(byVideo))
	for _, entry := range byVideo {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].VideoID < entries[j].VideoID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}

// PurgeVideo removes every mark referencing the video from both sets.
func (r *MemoryMarkRepository) PurgeVideo(_ context.Context, videoID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, users := range r.marks {
		for _, byVideo := range users {
			delete(byVideo, videoID)
		}
	}
	return nil
}

// MemoryUserRepository implements UserRepository for tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemoryUserRepository returns an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

// Create persists a new user record.
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return ErrConflict
		}
	}
	if _, ok := r.users[user.ID]; ok {
		return ErrConflict
	}
	r.users[user.ID] = user
	return nil
}

// FindByUsername fetches a user by their login name.
func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// FindByID fetches a user by identifier.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// Update modifies an existing user record.
func (r *MemoryUserRepository) Update(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

var _ MarkRepository = (*MemoryMarkRepository)(nil)
var _ UserRepository = (*MemoryUserRepository)(nil)
