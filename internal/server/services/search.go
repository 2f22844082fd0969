package services

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

type SearchMode string

const (
	SearchDate    SearchMode = "date"
	SearchHistory SearchMode = "history"
	SearchTag     SearchMode = "tag"
	SearchText    SearchMode = "text"
)

// SearchQuery selects one search mode. Query is the history id for
// SearchHistory, the tag id for SearchTag and the text for SearchText; it is
// ignored by SearchDate. Cursor is the id of the last row of the previous
// page, 0 for the first page.
type SearchQuery struct {
	Mode   SearchMode
	Query  string
	Cursor int64
}

// Search pages through revisions newest first. Only history search returns
// archived rows. An empty first page of a history or tag search is NotFound.
func (s *RevisionService) Search(ctx context.Context, q SearchQuery) (*models.Page[*models.Revision], error) {
	if q.Cursor < 0 {
		return nil, common.Validation(common.MsgRequestInvalid)
	}

	repo := s.revisions(s.db)
	limit := s.pageSize + 1

	var (
		rows []*models.Revision
		err  error
	)
	switch q.Mode {
	case SearchDate, "":
		rows, err = repo.ListActive(ctx, q.Cursor, limit)

	case SearchHistory:
		if _, perr := uuid.Parse(q.Query); perr != nil {
			return nil, common.NotFound(common.MsgHistoryNotExist, perr)
		}
		rows, err = repo.ListHistory(ctx, q.Query, q.Cursor, limit)
		if err == nil && len(rows) == 0 && q.Cursor == 0 {
			return nil, common.NotFound(common.MsgHistoryNotExist, common.ErrorNotFound)
		}

	case SearchTag:
		tagID, perr := strconv.ParseInt(q.Query, 10, 64)
		if perr != nil {
			return nil, common.Validation(common.MsgRequestInvalid)
		}
		rows, err = repo.ListByTag(ctx, tagID, q.Cursor, limit)
		if err == nil && len(rows) == 0 && q.Cursor == 0 {
			return nil, common.NotFound(common.MsgTagNotExist, common.ErrorNotFound)
		}

	case SearchText:
		rows, err = repo.SearchText(ctx, q.Query, q.Cursor, limit)

	default:
		return nil, common.Validation(common.MsgRequestInvalid)
	}
	if err != nil {
		return nil, common.Internal(err)
	}

	page := &models.Page[*models.Revision]{Items: rows}
	if len(rows) > s.pageSize {
		page.Items = rows[:s.pageSize]
		page.NextCursor = strconv.FormatInt(page.Items[s.pageSize-1].ID, 10)
	}
	if page.Items == nil {
		page.Items = []*models.Revision{}
	}

	if err := s.attachListTags(ctx, page.Items); err != nil {
		return nil, common.Internal(err)
	}
	return page, nil
}

func (s *RevisionService) attachListTags(ctx context.Context, revs []*models.Revision) error {
	ids := make([]int64, len(revs))
	for i, r := range revs {
		ids[i] = r.ID
	}

	tags, err := s.revisions(s.db).TagsFor(ctx, ids)
	if err != nil {
		return err
	}
	for _, r := range revs {
		r.Tags = tags[r.ID]
		if r.Tags == nil {
			r.Tags = []*models.Tag{}
		}
	}
	return nil
}
