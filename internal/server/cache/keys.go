package cache

import (
	"strconv"

	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

// Namespace is the key prefix of one cached entity family.
type Namespace string

const (
	NamespaceDocument  Namespace = "document"
	NamespaceFile      Namespace = "file"
	NamespaceTagSearch Namespace = "tags"
)

func (n Namespace) Pattern() string {
	return string(n) + ":*"
}

func (n Namespace) Key(suffix string) string {
	return string(n) + ":" + suffix
}

// RevisionNamespace returns the namespace revisions of kind are cached under.
func RevisionNamespace(kind models.RevisionKind) Namespace {
	if kind == models.KindFile {
		return NamespaceFile
	}
	return NamespaceDocument
}

// RevisionKey is "document:<id>" or "file:<id>".
func RevisionKey(kind models.RevisionKind, id int64) string {
	return RevisionNamespace(kind).Key(strconv.FormatInt(id, 10))
}

// TagSearchKey is the hash holding every cached page of one tag query; the
// page cursor is the hash field.
func TagSearchKey(query string) string {
	return NamespaceTagSearch.Key(query)
}
