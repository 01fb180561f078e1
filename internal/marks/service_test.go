package marks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidbrowse/backend/internal/catalog"
	"github.com/vidbrowse/backend/internal/models"
	"github.com/vidbrowse/backend/internal/repositories"
)

func newTestService(t *testing.T, filenames ...string) (*Service, *catalog.Index) {
	t.Helper()
	idx := catalog.New(nil)
	for _, name := range filenames {
		if _, err := idx.Upsert(context.Background(), models.VideoRecord{Filename: name}); err != nil {
			t.Fatalf("Upsert(%q) returned error: %v", name, err)
		}
	}
	return NewService(repositories.NewMemoryMarkRepository(), idx), idx
}

func TestAddAndCheckMark(t *testing.T) {
	svc, _ := newTestService(t, "a.mp4", "b.mp4")
	ctx := context.Background()

	if err := svc.Add(ctx, repositories.MarkFavorites, "u1", 1); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	marked, err := svc.IsMarked(ctx, repositories.MarkFavorites, "u1", 1)
	if err != nil {
		t.Fatalf("IsMarked returned error: %v", err)
	}
	if !marked {
		t.Error("IsMarked = false after Add")
	}

	marked, err = svc.IsMarked(ctx, repositories.MarkFavorites, "u1", 2)
	if err != nil {
		t.Fatalf("IsMarked returned error: %v", err)
	}
	if marked {
		t.Error("IsMarked = true for an unmarked video")
	}
}

func TestAddIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t, "a.mp4")
	ctx := context.Background()

	if err := svc.Add(ctx, repositories.MarkFavorites, "u1", 1); err != nil {
		t.Fatalf("first Add returned error: %v", err)
	}
	if err := svc.Add(ctx, repositories.MarkFavorites, "u1", 1); err != nil {
		t.Fatalf("repeated Add returned error: %v", err)
	}

	page, err := svc.List(ctx, repositories.MarkFavorites, "u1", 1, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(page.Videos) != 1 {
		t.Errorf("List returned %d videos after duplicate Add, want 1", len(page.Videos))
	}
}

func TestAddUnknownVideoFails(t *testing.T) {
	svc, _ := newTestService(t, "a.mp4")

	err := svc.Add(context.Background(), repositories.MarkFavorites, "u1", 99)
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Add unknown video: error = %v, want ErrNotFound", err)
	}
}

func TestAddMissingVideoFails(t *testing.T) {
	svc, idx := newTestService(t, "a.mp4")
	ctx := context.Background()

	if err := idx.MarkMissing(ctx, 1); err != nil {
		t.Fatalf("MarkMissing returned error: %v", err)
	}

	err := svc.Add(ctx, repositories.MarkFavorites, "u1", 1)
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Add missing video: error = %v, want ErrNotFound", err)
	}
}

func TestRemoveAbsentMarkIsNoOp(t *testing.T) {
	svc, _ := newTestService(t, "a.mp4")

	if err := svc.Remove(context.Background(), repositories.MarkFavorites, "u1", 1); err != nil {
		t.Errorf("Remove of absent mark returned error: %v", err)
	}
}

func TestSetsAreIndependent(t *testing.T) {
	svc, _ := newTestService(t, "a.mp4")
	ctx := context.Background()

	if err := svc.Add(ctx, repositories.MarkFavorites, "u1", 1); err != nil {
		t.Fatalf("Add favorite returned error: %v", err)
	}
	if err := svc.Add(ctx, repositories.MarkDislikes, "u1", 1); err != nil {
		t.Fatalf("Add dislike returned error: %v", err)
	}

	if err := svc.Remove(ctx, repositories.MarkDislikes, "u1", 1); err != nil {
		t.Fatalf("Remove dislike returned error: %v", err)
	}

	marked, err := svc.IsMarked(ctx, repositories.MarkFavorites, "u1", 1)
	if err != nil {
		t.Fatalf("IsMarked returned error: %v", err)
	}
	if !marked {
		t.Error("removing a dislike cleared the favorite")
	}
}

func TestListOrdersByMarkTimeAndPages(t *testing.T) {
	svc, _ := newTestService(t, "a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4")
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	order := []int64{4, 1, 5, 2}
	for i, id := range order {
		stamp := base.Add(time.Duration(i) * time.Minute)
		svc.nowFunc = func() time.Time { return stamp }
		if err := svc.Add(ctx, repositories.MarkFavorites, "u1", id); err != nil {
			t.Fatalf("Add %d returned error: %v", id, err)
		}
	}

	first, err := svc.List(ctx, repositories.MarkFavorites, "u1", 1, 3)
	if err != nil {
		t.Fatalf("List page 1 returned error: %v", err)
	}
	if got := videoIDs(first.Videos); len(got) != 3 || got[0] != 4 || got[1] != 1 || got[2] != 5 {
		t.Errorf("page 1 ids = %v, want [4 1 5]", got)
	}
	if !first.HasMore {
		t.Error("page 1 of 2 should report more pages")
	}

	second, err := svc.List(ctx, repositories.MarkFavorites, "u1", 2, 3)
	if err != nil {
		t.Fatalf("List page 2 returned error: %v", err)
	}
	if got := videoIDs(second.Videos); len(got) != 1 || got[0] != 2 {
		t.Errorf("page 2 ids = %v, want [2]", got)
	}
	if second.HasMore {
		t.Error("final page should not report more pages")
	}
}

func TestListSkipsMissingVideos(t *testing.T) {
	svc, idx := newTestService(t, "a.mp4", "b.mp4", "c.mp4")
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		if err := svc.Add(ctx, repositories.MarkFavorites, "u1", id); err != nil {
			t.Fatalf("Add %d returned error: %v", id, err)
		}
	}
	if err := idx.MarkMissing(ctx, 2); err != nil {
		t.Fatalf("MarkMissing returned error: %v", err)
	}

	page, err := svc.List(ctx, repositories.MarkFavorites, "u1", 1, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	got := videoIDs(page.Videos)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("List ids = %v, want [1 3] (missing video skipped)", got)
	}
}

func TestPurgeVideoClearsBothSets(t *testing.T) {
	svc, _ := newTestService(t, "a.mp4")
	ctx := context.Background()

	if err := svc.Add(ctx, repositories.MarkFavorites, "u1", 1); err != nil {
		t.Fatalf("Add favorite returned error: %v", err)
	}
	if err := svc.Add(ctx, repositories.MarkDislikes, "u2", 1); err != nil {
		t.Fatalf("Add dislike returned error: %v", err)
	}

	if err := svc.PurgeVideo(ctx, 1); err != nil {
		t.Fatalf("PurgeVideo returned error: %v", err)
	}

	for _, tc := range []struct {
		set  repositories.MarkSet
		user string
	}{
		{repositories.MarkFavorites, "u1"},
		{repositories.MarkDislikes, "u2"},
	} {
		marked, err := svc.IsMarked(ctx, tc.set, tc.user, 1)
		if err != nil {
			t.Fatalf("IsMarked returned error: %v", err)
		}
		if marked {
			t.Errorf("%s mark for %s survived the purge", tc.set, tc.user)
		}
	}
}

func videoIDs(videos []models.VideoRecord) []int64 {
	out := make([]int64, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}
