package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/comments"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/revisions"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/sessions"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/tags"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewRepositoryManager(t *testing.T) {
	tests := []struct {
		driver  string
		dialect string
		wantErr bool
	}{
		{"pgx", "pgx", false},
		{"postgres", "pgx", false},
		{"sqlite", "sqlite3", false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			m, err := NewRepositoryManager(tt.driver)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := m.(*SQLRepositoryManager).dialect; got != tt.dialect {
				t.Fatalf("dialect = %q, want %q", got, tt.dialect)
			}
		})
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &SQLRepositoryManager{dialect: "pgx"}

	var _ users.Repository = m.Users(db)
	var _ sessions.Repository = m.Sessions(db)
	var _ tags.Repository = m.Tags(db)

	if _, ok := m.Documents(db).(*revisions.SQLRepository); !ok {
		t.Fatal("Documents() is not a SQL repository")
	}
	if _, ok := m.Files(db).(*revisions.SQLRepository); !ok {
		t.Fatal("Files() is not a SQL repository")
	}
	if _, ok := m.DocumentComments(db).(*comments.SQLRepository); !ok {
		t.Fatal("DocumentComments() is not a SQL repository")
	}
	if m.FileComments(db) == nil {
		t.Fatal("FileComments() nil")
	}
}

func TestRunMigrations_UsesDialectDirectory(t *testing.T) {
	tests := []struct {
		dialect string
		dir     string
	}{
		{"pgx", "postgres"},
		{"sqlite3", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			db, _ := newDB(t)
			defer db.Close()

			orig := gooseUpContext
			gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
				if dir != tt.dir {
					return errors.New("unexpected dir " + dir)
				}
				return nil
			}
			defer func() { gooseUpContext = orig }()

			m := &SQLRepositoryManager{dialect: tt.dialect}
			if err := m.RunMigrations(context.Background(), db); err != nil {
				t.Fatalf("RunMigrations error: %v", err)
			}
		})
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &SQLRepositoryManager{dialect: "pgx"}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, "sqlite", "file:"+filepath.Join(t.TempDir(), "open.db"))
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer db.Close()

	rm, err := NewRepositoryManager("sqlite")
	if err != nil {
		t.Fatalf("NewRepositoryManager: %v", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations on sqlite: %v", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&n); err != nil {
		t.Fatalf("tags table missing after migrations: %v", err)
	}

	if _, err := Open(ctx, "mysql", "x"); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
