// Package repomanager provides the SQL RepositoryManager, wiring together
// repository constructors and database migrations (via goose). The same
// statements run on PostgreSQL (pgx) and on SQLite (modernc).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/server/migrations"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/comments"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/revisions"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/sessions"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/tags"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends SQL repository implementations and exposes a
// schema migration hook for its dialect.
type SQLRepositoryManager struct {
	dialect string
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Documents(db dbx.DBTX) revisions.Repository {
	return revisions.NewSQLRepository(db, revisions.Documents)
}

func (m *SQLRepositoryManager) Files(db dbx.DBTX) revisions.Repository {
	return revisions.NewSQLRepository(db, revisions.Files)
}

func (m *SQLRepositoryManager) Tags(db dbx.DBTX) tags.Repository {
	return tags.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) DocumentComments(db dbx.DBTX) comments.Repository {
	return comments.NewSQLRepository(db, revisions.Documents)
}

func (m *SQLRepositoryManager) FileComments(db dbx.DBTX) comments.Repository {
	return comments.NewSQLRepository(db, revisions.Files)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations of the manager's
// dialect and runs them against db.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, migrations.Dir(m.dialect)); err != nil {
		return err
	}
	return nil
}

// Dialect maps a database/sql driver name to the goose dialect.
func Dialect(driver string) (string, error) {
	switch driver {
	case "pgx", "postgres":
		return "pgx", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewRepositoryManager constructs a RepositoryManager for the given
// database/sql driver name ("pgx" or "sqlite").
func NewRepositoryManager(driver string) (RepositoryManager, error) {
	dialect, err := Dialect(driver)
	if err != nil {
		return nil, err
	}
	return &SQLRepositoryManager{dialect: dialect}, nil
}

// Open connects to the database with the registered driver for driver
// ("pgx"/"postgres" or "sqlite"/"sqlite3") and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	dialect, err := Dialect(driver)
	if err != nil {
		return nil, err
	}
	name := "pgx"
	if dialect == "sqlite3" {
		name = "sqlite"
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}
