package models

import "time"

// Range addresses the commented span of the parent content.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Comment belongs to one document or file revision. ParentID is zero once the
// parent row has been hard-deleted.
type Comment struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parentId"`
	AuthorID  string    `json:"authorId,omitempty"`
	Content   string    `json:"content"`
	Range     Range     `json:"range"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
