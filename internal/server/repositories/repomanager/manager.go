package repomanager

import (
	"context"
	"database/sql"

	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/comments"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/revisions"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/sessions"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/tags"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or a transaction.
// Services pass the tx handle explicitly so every repository in one mutation
// shares it.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Documents(db dbx.DBTX) revisions.Repository
	Files(db dbx.DBTX) revisions.Repository
	Tags(db dbx.DBTX) tags.Repository
	DocumentComments(db dbx.DBTX) comments.Repository
	FileComments(db dbx.DBTX) comments.Repository
}
