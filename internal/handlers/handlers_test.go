package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidbrowse/backend/internal/auth"
	"github.com/vidbrowse/backend/internal/browse"
	"github.com/vidbrowse/backend/internal/catalog"
	"github.com/vidbrowse/backend/internal/jobs"
	"github.com/vidbrowse/backend/internal/marks"
	"github.com/vidbrowse/backend/internal/models"
	"github.com/vidbrowse/backend/internal/repositories"
	"github.com/vidbrowse/backend/internal/storage"
)

// stubJobRunner records start calls and plays back canned results.
type stubJobRunner struct {
	job      jobs.Job
	err      error
	latest   map[jobs.Kind]jobs.Job
	started  []jobs.Kind
	purgedBy string
}

func (s *stubJobRunner) StartRefresh() (jobs.Job, error) {
	s.started = append(s.started, jobs.KindRefresh)
	return s.job, s.err
}

func (s *stubJobRunner) StartThumbnails() (jobs.Job, error) {
	s.started = append(s.started, jobs.KindThumbnails)
	return s.job, s.err
}

func (s *stubJobRunner) StartDislikePurge(userID string) (jobs.Job, error) {
	s.started = append(s.started, jobs.KindDislikePurge)
	s.purgedBy = userID
	return s.job, s.err
}

func (s *stubJobRunner) Status(kind jobs.Kind) (jobs.Job, bool) {
	job, ok := s.latest[kind]
	return job, ok
}

type fixture struct {
	mux      *http.ServeMux
	index    *catalog.Index
	marks    *marks.Service
	users    *repositories.MemoryUserRepository
	sessions *auth.Manager
	runner   *stubJobRunner
	mediaDir string
	thumbs   storage.Storage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	index := catalog.New(nil)
	markRepo := repositories.NewMemoryMarkRepository()
	markSvc := marks.NewService(markRepo, index)
	users := repositories.NewMemoryUserRepository()
	sessions := auth.NewManager(time.Hour, auth.NewInMemorySessionStore())
	runner := &stubJobRunner{latest: make(map[jobs.Kind]jobs.Job)}
	mediaDir := t.TempDir()
	thumbs := storage.NewLocalStorage(t.TempDir())

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Catalog:         index,
		Nav:             browse.NewResolver(index, markRepo),
		Marks:           markSvc,
		Users:           users,
		Sessions:        sessions,
		Jobs:            runner,
		Thumbnails:      thumbs,
		MediaDir:        mediaDir,
		DefaultPageSize: 50,
		MaxPageSize:     100,
	})

	return &fixture{
		mux:      mux,
		index:    index,
		marks:    markSvc,
		users:    users,
		sessions: sessions,
		runner:   runner,
		mediaDir: mediaDir,
		thumbs:   thumbs,
	}
}

func (f *fixture) addVideos(t *testing.T, filenames ...string) {
	t.Helper()
	for _, name := range filenames {
		if _, err := f.index.Upsert(context.Background(), models.VideoRecord{Filename: name}); err != nil {
			t.Fatalf("Upsert(%q) returned error: %v", name, err)
		}
	}
}

// addUser creates an account and returns its id.
func (f *fixture) addUser(t *testing.T, username, password string, admin bool) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{ID: "id-" + username, Username: username, Password: string(hashed), IsAdmin: admin}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

// login issues a session token for an existing user id.
func (f *fixture) login(t *testing.T, userID string) string {
	t.Helper()
	session, err := f.sessions.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return session.Token
}

func (f *fixture) do(t *testing.T, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v (body %q)", err, rec.Body.String())
	}
}
