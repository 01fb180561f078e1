package browse

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/vidbrowse/backend/internal/catalog"
	"github.com/vidbrowse/backend/internal/models"
	"github.com/vidbrowse/backend/internal/repositories"
)

// ScopeKind selects the ordered sequence next/previous operate over.
type ScopeKind string

const (
	ScopeGlobal    ScopeKind = "global"
	ScopeDirectory ScopeKind = "directory"
	ScopeFavorites ScopeKind = "favorites"
)

// Scope is a navigation context. Dir applies to directory scope,
// UserID to favorites scope.
type Scope struct {
	Kind   ScopeKind
	Dir    string
	UserID string
}

// Global is the stable collection-order scope.
var Global = Scope{Kind: ScopeGlobal}

// InDirectory scopes navigation to records under the given directory.
func InDirectory(dir string) Scope {
	return Scope{Kind: ScopeDirectory, Dir: path.Clean(dir)}
}

// InFavorites scopes navigation to the user's favorites, ordered by
// the time each favorite was created.
func InFavorites(userID string) Scope {
	return Scope{Kind: ScopeFavorites, UserID: userID}
}

// FavoriteLister supplies a user's favorite entries in created order.
type FavoriteLister interface {
	ListForUser(ctx context.Context, set repositories.MarkSet, userID string) ([]models.MarkEntry, error)
}

// Resolver answers next/previous queries against the catalog, narrowed
// by scope. Requesting navigation for an id absent from the scope is a
// NotFound, never a silent jump to the first or last element.
type Resolver struct {
	catalog   *catalog.Index
	favorites FavoriteLister
}

// NewResolver constructs a Resolver over the index and favorite store.
func NewResolver(idx *catalog.Index, favorites FavoriteLister) *Resolver {
	return &Resolver{catalog: idx, favorites: favorites}
}

// Next returns the record following id within scope.
func (r *Resolver) Next(ctx context.Context, id int64, scope Scope) (models.VideoRecord, error) {
	return r.neighbor(ctx, id, scope, 1)
}

// Previous returns the record preceding id within scope.
func (r *Resolver) Previous(ctx context.Context, id int64, scope Scope) (models.VideoRecord, error) {
	return r.neighbor(ctx, id, scope, -1)
}

func (r *Resolver) neighbor(ctx context.Context, id int64, scope Scope, step int) (models.VideoRecord, error) {
	sequence, err := r.sequence(ctx, scope)
	if err != nil {
		return models.VideoRecord{}, err
	}

	pos := -1
	for i, rec := range sequence {
		if rec.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return models.VideoRecord{}, repositories.ErrNotFound
	}

	pos += step
	if pos < 0 || pos >= len(sequence) {
		return models.VideoRecord{}, repositories.ErrNotFound
	}

	return sequence[pos], nil
}

func (r *Resolver) sequence(ctx context.Context, scope Scope) ([]models.VideoRecord, error) {
	switch scope.Kind {
	case ScopeGlobal:
		return r.catalog.List(), nil
	case ScopeDirectory:
		var out []models.VideoRecord
		for _, rec := range r.catalog.List() {
			if underDir(rec.DirPath, scope.Dir) {
				out = append(out, rec)
			}
		}
		return out, nil
	case ScopeFavorites:
		entries, err := r.favorites.ListForUser(ctx, repositories.MarkFavorites, scope.UserID)
		if err != nil {
			return nil, fmt.Errorf("list favorites for navigation: %w", err)
		}
		out := make([]models.VideoRecord, 0, len(entries))
		for _, entry := range entries {
			rec, err := r.catalog.Get(entry.VideoID)
			if err != nil || rec.Missing {
				continue
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown navigation scope %q", scope.Kind)
	}
}

// underDir reports whether dirPath is dir itself or nested below it.
func underDir(dirPath, dir string) bool {
	if dir == "" || dir == "." {
		return true
	}
	if dirPath == dir {
		return true
	}
	return strings.HasPrefix(dirPath, dir+"/")
}
