package revisions

import (
	"fmt"

	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

// Table describes one revision table. Documents and files share the schema
// except for the name column and the storage key.
type Table struct {
	Kind          models.RevisionKind
	Name          string
	NameColumn    string
	HasStorageKey bool
	LinkTable     string
	LinkColumn    string
}

var (
	Documents = Table{
		Kind:       models.KindDocument,
		Name:       "documents",
		NameColumn: "title",
		LinkTable:  "document_tags",
		LinkColumn: "document_id",
	}
	Files = Table{
		Kind:          models.KindFile,
		Name:          "files",
		NameColumn:    "filename",
		HasStorageKey: true,
		LinkTable:     "file_tags",
		LinkColumn:    "file_id",
	}
)

// columns lists the selected columns of alias r in the order scanRevision
// expects them.
func (t Table) columns() string {
	storage := "''"
	if t.HasStorageKey {
		storage = "r.storage_key"
	}
	return fmt.Sprintf(
		"r.id, r.history_id, r.revision, r.is_archived, r.%s, r.content, r.parsed_content, %s, r.author_id, r.created_at, r.updated_at",
		t.NameColumn, storage)
}
