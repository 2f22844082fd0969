// Package models defines the rows persisted by kokoto and the values passed
// between repositories, services and transports.
package models

import (
	"encoding/json"
	"time"
)

// RevisionKind tells documents and files apart. Both are stored in tables of
// the same shape.
type RevisionKind string

const (
	KindDocument RevisionKind = "document"
	KindFile     RevisionKind = "file"
)

// Revision is one immutable row of a document or file history chain. All rows
// sharing a HistoryID form the chain; at most one of them is not archived.
type Revision struct {
	Kind          RevisionKind `json:"-"`
	ID            int64        `json:"id"`
	HistoryID     string       `json:"historyId"`
	Revision      int          `json:"revision"`
	IsArchived    bool         `json:"isArchived"`
	Title         string       `json:"-"`
	Content       string       `json:"content"`
	ParsedContent string       `json:"parsedContent"`
	StorageKey    string       `json:"storageKey,omitempty"`
	AuthorID      string       `json:"authorId,omitempty"`
	Tags          []*Tag       `json:"tags"`
	Comments      []*Comment   `json:"comments,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

type revisionAlias Revision

// MarshalJSON emits Title as "filename" for files and "title" for documents.
func (r Revision) MarshalJSON() ([]byte, error) {
	v := struct {
		revisionAlias
		Title    string `json:"title,omitempty"`
		Filename string `json:"filename,omitempty"`
	}{revisionAlias: revisionAlias(r)}

	if r.Kind == KindFile {
		v.Filename = r.Title
	} else {
		v.Title = r.Title
	}
	return json.Marshal(v)
}

func (r *Revision) UnmarshalJSON(b []byte) error {
	v := struct {
		*revisionAlias
		Title    string `json:"title"`
		Filename string `json:"filename"`
	}{revisionAlias: (*revisionAlias)(r)}

	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	r.Title = v.Title
	if v.Filename != "" {
		r.Title = v.Filename
		r.Kind = KindFile
	}
	return nil
}

// RevisionInput is the caller supplied part of a create or update.
type RevisionInput struct {
	Title      string
	Content    string
	StorageKey string
	AuthorID   string
	Tags       []TagInput
}
