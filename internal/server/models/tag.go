package models

// Tag is a free-form label. Count is the number of active documents and files
// referencing it and is at least 1 for every stored tag.
type Tag struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// TagInput references a tag by title when attaching it to a revision.
type TagInput struct {
	Title string `json:"title"`
	Color string `json:"color"`
}

// TagPatch carries the fields of an update; nil means unchanged.
type TagPatch struct {
	Title *string `json:"title"`
	Color *string `json:"color"`
}

// TagRefcount is one line of an integrity report: the stored count next to
// the number of active link rows.
type TagRefcount struct {
	TagID       int64
	Title       string
	Count       int
	ActiveLinks int
}
