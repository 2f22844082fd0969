package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hatamake/kokoto-httpd/internal/logging"
	"github.com/hatamake/kokoto-httpd/internal/server/cache"
	"github.com/hatamake/kokoto-httpd/internal/server/config"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// testEnv is a migrated SQLite database with a miniredis-backed cache.
type testEnv struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	redis *miniredis.Miniredis
	inv   *recordingInvalidator
	deps  Deps
}

func newTestEnv(t *testing.T, pageSize int) *testEnv {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "kokoto.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos, err := repomanager.NewRepositoryManager("sqlite")
	require.NoError(t, err)
	require.NoError(t, repos.RunMigrations(ctx, db))

	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(cache.RedisOptions{Addr: mr.Addr(), TTL: time.Minute})
	t.Cleanup(func() { _ = store.Close() })

	log := logging.Nop()
	inv := &recordingInvalidator{next: cache.NewCoarseInvalidator(store, log)}

	return &testEnv{
		db:    db,
		repos: repos,
		redis: mr,
		inv:   inv,
		deps: Deps{
			DB:          db,
			Repos:       repos,
			Cache:       cache.New(store, log),
			Invalidator: inv,
			Log:         log,
			Config:      &config.Config{PageSize: pageSize},
		},
	}
}

// recordingInvalidator remembers every call before passing it on.
type recordingInvalidator struct {
	mu    sync.Mutex
	calls []string
	next  cache.Invalidator
}

func (r *recordingInvalidator) Revisions(ctx context.Context, kind models.RevisionKind, ids ...int64) {
	r.mu.Lock()
	r.calls = append(r.calls, string(kind))
	r.mu.Unlock()
	if r.next != nil {
		r.next.Revisions(ctx, kind, ids...)
	}
}

func (r *recordingInvalidator) TagSearches(ctx context.Context) {
	r.mu.Lock()
	r.calls = append(r.calls, "tags")
	r.mu.Unlock()
	if r.next != nil {
		r.next.TagSearches(ctx)
	}
}

func (r *recordingInvalidator) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recordingInvalidator) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func tagCount(t *testing.T, db *sql.DB, title string) (int, bool) {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT count FROM tags WHERE title = $1`, title).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, false
	}
	require.NoError(t, err)
	return n, true
}

func activeRows(t *testing.T, db *sql.DB, table, historyID string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM `+table+` WHERE history_id = $1 AND is_archived = FALSE`, historyID).Scan(&n))
	return n
}

func tagInputs(titles ...string) []models.TagInput {
	out := make([]models.TagInput, len(titles))
	for i, title := range titles {
		out[i] = models.TagInput{Title: title}
	}
	return out
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
