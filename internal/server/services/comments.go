package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/logging"
	"github.com/hatamake/kokoto-httpd/internal/server/cache"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/comments"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/repomanager"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/revisions"
)

// CommentService manages the comments of one revision kind. Comments can only
// be added, edited or removed while their parent revision is active, and only
// by their author.
type CommentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	kind        models.RevisionKind
	msg         messages
	invalidator cache.Invalidator
	log         logging.Logger
	now         func() time.Time
}

func NewDocumentCommentService(d Deps) *CommentService {
	return newCommentService(d, models.KindDocument)
}

func NewFileCommentService(d Deps) *CommentService {
	return newCommentService(d, models.KindFile)
}

func newCommentService(d Deps, kind models.RevisionKind) *CommentService {
	return &CommentService{
		db:          d.DB,
		repomanager: d.Repos,
		kind:        kind,
		msg:         kindMessages[kind],
		invalidator: d.Invalidator,
		log:         d.Log.With("module", string(kind)+"_comment"),
		now:         time.Now,
	}
}

func (s *CommentService) parents(db dbx.DBTX) revisions.Repository {
	if s.kind == models.KindFile {
		return s.repomanager.Files(db)
	}
	return s.repomanager.Documents(db)
}

func (s *CommentService) comments(db dbx.DBTX) comments.Repository {
	if s.kind == models.KindFile {
		return s.repomanager.FileComments(db)
	}
	return s.repomanager.DocumentComments(db)
}

func validComment(content string, r models.Range) bool {
	return strings.TrimSpace(content) != "" && r.Start >= 0 && r.End >= r.Start
}

// Add attaches a comment to the active revision parentID.
func (s *CommentService) Add(ctx context.Context, parentID int64, authorID, content string, r models.Range) (*models.Comment, error) {
	if !validComment(content, r) {
		return nil, common.Validation(common.MsgCommentInvalid)
	}

	now := s.now().UTC()
	c := &models.Comment{
		ParentID:  parentID,
		AuthorID:  authorID,
		Content:   content,
		Range:     r,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		parent, err := s.parents(tx).GetByID(ctx, parentID)
		if err != nil {
			return err
		}
		if parent.IsArchived {
			return common.NotFound(s.msg.notExist, common.ErrVersionConflict)
		}
		return s.comments(tx).Create(ctx, c)
	})
	if err != nil {
		return nil, s.classify(err, s.msg.notExist)
	}

	s.invalidator.Revisions(ctx, s.kind, parentID)
	return c, nil
}

// Update rewrites content and range of comment id.
func (s *CommentService) Update(ctx context.Context, id int64, authorID, content string, r models.Range) (*models.Comment, error) {
	if !validComment(content, r) {
		return nil, common.Validation(common.MsgCommentInvalid)
	}

	var c *models.Comment
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.comments(tx)

		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing.AuthorID != authorID {
			return common.ErrorNotFound
		}

		existing.Content = content
		existing.Range = r
		existing.UpdatedAt = s.now().UTC()
		if err := repo.Update(ctx, existing); err != nil {
			return err
		}
		c = existing
		return nil
	})
	if err != nil {
		return nil, s.classify(err, common.MsgCommentNotExist)
	}

	s.invalidator.Revisions(ctx, s.kind, c.ParentID)
	return c, nil
}

// Remove deletes comment id.
func (s *CommentService) Remove(ctx context.Context, id int64, authorID string) error {
	var parentID int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.comments(tx)

		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing.AuthorID != authorID {
			return common.ErrorNotFound
		}
		parentID = existing.ParentID
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return s.classify(err, common.MsgCommentNotExist)
	}

	s.log.Info(ctx, "comment removed", "id", id)
	s.invalidator.Revisions(ctx, s.kind, parentID)
	return nil
}

func (s *CommentService) classify(err error, notFoundMsg string) error {
	var typed *common.Error
	switch {
	case errors.As(err, &typed):
		return typed
	case errors.Is(err, common.ErrorNotFound):
		return common.NotFound(notFoundMsg, err)
	default:
		return common.Internal(err)
	}
}
