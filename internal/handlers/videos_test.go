package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vidbrowse/backend/internal/models"
)

type pageBody struct {
	Videos []struct {
		ID       int64  `json:"id"`
		Filename string `json:"filename"`
	} `json:"videos"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Seed    string `json:"seed"`
	HasMore bool   `json:"has_more"`
}

func TestListVideosPaginates(t *testing.T) {
	f := newFixture(t)
	f.addVideos(t, "a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4")

	rec := f.do(t, http.MethodGet, "/api/videos?page=2&per_page=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var body pageBody
	decodeBody(t, rec, &body)

	if body.Page != 2 || body.PerPage != 2 {
		t.Errorf("page meta = (%d, %d), want (2, 2)", body.Page, body.PerPage)
	}
	if len(body.Videos) != 2 || body.Videos[0].ID != 3 || body.Videos[1].ID != 4 {
		t.Errorf("videos = %+v, want ids [3 4]", body.Videos)
	}
	if !body.HasMore {
		t.Error("page 2 of 3 should report has_more")
	}
}

func TestListVideosRandomEchoesSeed(t *testing.T) {
	f := newFixture(t)
	f.addVideos(t, "a.mp4", "b.mp4", "c.mp4")

	rec := f.do(t, http.MethodGet, "/api/videos?random=true", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body pageBody
	decodeBody(t, rec, &body)
	if body.Seed == "" {
		t.Fatal("random listing should echo a seed")
	}

	replay := f.do(t, http.MethodGet, "/api/videos?random=true&seed="+body.Seed, "", nil)
	var replayBody pageBody
	decodeBody(t, replay, &replayBody)

	if len(replayBody.Videos) != len(body.Videos) {
		t.Fatalf("replay returned %d videos, want %d", len(replayBody.Videos), len(body.Videos))
	}
	for i := range body.Videos {
		if body.Videos[i].ID != replayBody.Videos[i].ID {
			t.Errorf("replay order diverged at %d: %d vs %d", i, body.Videos[i].ID, replayBody.Videos[i].ID)
		}
	}
}

func TestListVideosRejectsMalformedParams(t *testing.T) {
	f := newFixture(t)
	f.addVideos(t, "a.mp4")

	for _, target := range []string{
		"/api/videos?page=zero",
		"/api/videos?page=-1",
		"/api/videos?per_page=abc",
		"/api/videos?random=sometimes",
	} {
		rec := f.do(t, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestVideoDetailCarriesURLAndNextID(t *testing.T) {
	f := newFixture(t)
	f.addVideos(t, "a.mp4", "b.mp4")

	rec := f.do(t, http.MethodGet, "/api/videos/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		ID     int64  `json:"id"`
		URL    string `json:"url"`
		NextID *int64 `json:"next_id"`
	}
	decodeBody(t, rec, &body)

	if body.ID != 1 {
		t.Errorf("id = %d, want 1", body.ID)
	}
	if !strings.HasPrefix(body.URL, "/api/videos/file/") {
		t.Errorf("url = %q, want /api/videos/file/ prefix", body.URL)
	}
	if body.NextID == nil || *body.NextID != 2 {
		t.Errorf("next_id = %v, want 2", body.NextID)
	}
}

func TestVideoDetailLastHasNullNextID(t *testing.T) {
	f := newFixture(t)
	f.addVideos(t, "a.mp4")

	rec := f.do(t, http.MethodGet, "/api/videos/1", "", nil)
	var body struct {
		NextID *int64 `json:"next_id"`
	}
	decodeBody(t, rec, &body)

	if body.NextID != nil {
		t.Errorf("next_id = %d, want null at collection end", *body.NextID)
	}
}

func TestVideoDetailNotFound(t *testing.T) {
	f := newFixture(t)
	f.addVideos(t, "a.mp4")

	if rec := f.do(t, http.MethodGet, "/api/videos/99", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/videos/abc", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", rec.Code)
	}

	if err := f.index.MarkMissing(context.Background(), 1); err != nil {
		t.Fatalf("MarkMissing returned error: %v", err)
	}
	if rec := f.do(t, http.MethodGet, "/api/videos/1", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", rec.Code)
	}
}

func TestVideoNextAndPrevious(t *testing.T) {
	f := newFixture(t)
	f.addVideos(t, "a.mp4", "b.mp4", "c.mp4")

	rec := f.do(t, http.MethodGet, "/api/videos/next/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("next status = %d, want 200", rec.Code)
	}
	var body struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &body)
	if body.ID != 2 {
		t.Errorf("next of 1 = %d, want 2", body.ID)
	}

	rec = f.do(t, http.MethodGet, "/api/videos/prev/3", "", nil)
	decodeBody(t, rec, &body)
	if body.ID != 2 {
		t.Errorf("prev of 3 = %d, want 2", body.ID)
	}

	if rec := f.do(t, http.MethodGet, "/api/videos/next/3", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("next at end status = %d, want 404 (no wrap-around)", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/videos/prev/1", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("prev at start status = %d, want 404 (no wrap-around)", rec.Code)
	}
}

func TestVideoNextScopedToDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, rec := range []models.VideoRecord{
		{Filename: "a.mp4", DirPath: "shows"},
		{Filename: "b.mp4", DirPath: "movies"},
		{Filename: "c.mp4", DirPath: "shows"},
	} {
		if _, err := f.index.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert returned error: %v", err)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/videos/next/1?dir=shows", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &body)
	if body.ID != 3 {
		t.Errorf("next of 1 in shows/ = %d, want 3", body.ID)
	}
}

func TestVideoFileServesCatalogContentOnly(t *testing.T) {
	f := newFixture(t)
	f.addVideos(t, "a.mp4")

	if err := os.WriteFile(filepath.Join(f.mediaDir, "a.mp4"), []byte("mp4-bytes"), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(f.mediaDir, "secret.txt"), []byte("nope"), 0o644); err != nil {
		t.Fatalf("write unrelated file: %v", err)
	}

	rec := f.do(t, http.MethodGet, "/api/videos/file/a.mp4", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "mp4-bytes" {
		t.Errorf("body = %q, want file contents", rec.Body.String())
	}

	// On disk but not in the catalog: never served.
	if rec := f.do(t, http.MethodGet, "/api/videos/file/secret.txt", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("uncataloged file status = %d, want 404", rec.Code)
	}
}

func TestThumbnailEndpoint(t *testing.T) {
	f := newFixture(t)
	f.addVideos(t, "a.mp4", "b.mp4")
	ctx := context.Background()

	if _, err := f.thumbs.Save(ctx, "1.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("save thumbnail: %v", err)
	}
	if err := f.index.SetThumbnail(ctx, 1, true); err != nil {
		t.Fatalf("SetThumbnail returned error: %v", err)
	}

	rec := f.do(t, http.MethodGet, "/api/thumbnail/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", got)
	}
	if rec.Body.String() != "jpeg" {
		t.Errorf("body = %q, want thumbnail bytes", rec.Body.String())
	}

	if rec := f.do(t, http.MethodGet, "/api/thumbnail/2", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("video without thumbnail status = %d, want 404", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/thumbnail/99", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown video status = %d, want 404", rec.Code)
	}
}
