package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/logging"
	"github.com/hatamake/kokoto-httpd/internal/server/cache"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/repomanager"
)

// TagService manages tags directly. Counts are only changed by the
// versioning engine; here tags are looked up, renamed, repainted or removed.
type TagService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       *cache.Cache
	invalidator cache.Invalidator
	log         logging.Logger
	pageSize    int
}

func NewTagService(d Deps) *TagService {
	return &TagService{
		db:          d.DB,
		repomanager: d.Repos,
		cache:       d.Cache,
		invalidator: d.Invalidator,
		log:         d.Log.With("module", "tag"),
		pageSize:    pageSizeOf(d.Config),
	}
}

// Lookup finds the tag titled title. It never changes the count: references
// are only taken when a revision links the tag.
func (s *TagService) Lookup(ctx context.Context, title string) (*models.Tag, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, common.Validation(common.MsgTagInvalid)
	}

	tag, err := s.repomanager.Tags(s.db).GetByTitle(ctx, title)
	if err != nil {
		return nil, classifyTag(err)
	}
	return tag, nil
}

func (s *TagService) Get(ctx context.Context, id int64) (*models.Tag, error) {
	tag, err := s.repomanager.Tags(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, classifyTag(err)
	}
	return tag, nil
}

// Update applies patch to tag id. A title taken by another tag is a Conflict.
func (s *TagService) Update(ctx context.Context, id int64, patch models.TagPatch) (*models.Tag, error) {
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, common.Validation(common.MsgTagInvalid)
		}
		patch.Title = &t
	}
	if patch.Color != nil && !colorPattern.MatchString(*patch.Color) {
		return nil, common.Validation(common.MsgTagInvalid)
	}

	var tag *models.Tag
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tags(tx)

		t, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Color != nil {
			t.Color = *patch.Color
		}
		if err := repo.Update(ctx, t); err != nil {
			return err
		}
		tag = t
		return nil
	})
	if err != nil {
		return nil, classifyTag(err)
	}

	s.log.Info(ctx, "tag updated", "id", id)
	s.invalidateAll(ctx)
	return tag, nil
}

// Paint changes only the color of tag id.
func (s *TagService) Paint(ctx context.Context, id int64, color string) (*models.Tag, error) {
	return s.Update(ctx, id, models.TagPatch{Color: &color})
}

// Remove deletes tag id and its links. Revisions that carried it simply lose it.
func (s *TagService) Remove(ctx context.Context, id int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Tags(tx).Delete(ctx, id)
	})
	if err != nil {
		return classifyTag(err)
	}

	s.log.Info(ctx, "tag removed", "id", id)
	s.invalidateAll(ctx)
	return nil
}

// Search pages through tags whose title starts with query, ordered by title.
// Pages are cached per query and cursor.
func (s *TagService) Search(ctx context.Context, query, cursor string) (*models.Page[*models.Tag], error) {
	if page, ok := s.cache.TagPage(ctx, query, cursor); ok {
		return page, nil
	}

	tags, err := s.repomanager.Tags(s.db).Search(ctx, query, cursor, s.pageSize+1)
	if err != nil {
		return nil, common.Internal(err)
	}

	page := &models.Page[*models.Tag]{Items: tags}
	if len(tags) > s.pageSize {
		page.Items = tags[:s.pageSize]
		page.NextCursor = page.Items[s.pageSize-1].Title
	}
	if page.Items == nil {
		page.Items = []*models.Tag{}
	}

	s.cache.PutTagPage(ctx, query, cursor, page)
	return page, nil
}

// invalidateAll drops tag searches and every cached revision, since any
// cached document or file may embed the changed tag.
func (s *TagService) invalidateAll(ctx context.Context) {
	s.invalidator.TagSearches(ctx)
	s.invalidator.Revisions(ctx, models.KindDocument)
	s.invalidator.Revisions(ctx, models.KindFile)
}

func classifyTag(err error) error {
	var typed *common.Error
	switch {
	case errors.As(err, &typed):
		return typed
	case errors.Is(err, common.ErrorNotFound):
		return common.NotFound(common.MsgTagNotExist, err)
	case errors.Is(err, common.ErrorAlreadyExists):
		return common.Conflict(common.MsgTagInvalid, err)
	default:
		return common.Internal(err)
	}
}
