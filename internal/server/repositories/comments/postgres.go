// Package comments stores comments of one revision table. Reads and writes by
// comment id only see comments whose parent revision is still active; the
// comments of archived revisions stay attached but frozen.
package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/revisions"
)

type SQLRepository struct {
	db     dbx.DBTX
	parent revisions.Table
}

func NewSQLRepository(db dbx.DBTX, parent revisions.Table) *SQLRepository {
	return &SQLRepository{db: db, parent: parent}
}

func (r *SQLRepository) columns() string {
	return fmt.Sprintf("c.id, c.%s, c.author_id, c.content, c.range_start, c.range_end, c.created_at, c.updated_at",
		r.parent.LinkColumn)
}

// activeParent restricts a statement on comments to rows whose parent is active.
func (r *SQLRepository) activeParent() string {
	return fmt.Sprintf("%s IN (SELECT id FROM %s WHERE is_archived = FALSE)", r.parent.LinkColumn, r.parent.Name)
}

// Create inserts c and sets its ID. The caller checks that the parent is
// active inside the same transaction.
func (r *SQLRepository) Create(ctx context.Context, c *models.Comment) error {
	query := fmt.Sprintf(`
		INSERT INTO comments (%s, author_id, content, range_start, range_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`, r.parent.LinkColumn)

	author := sql.NullString{String: c.AuthorID, Valid: c.AuthorID != ""}
	err := r.db.QueryRowContext(ctx, query,
		c.ParentID, author, c.Content, c.Range.Start, c.Range.End, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM comments c
		JOIN %s p ON p.id = c.%s
		WHERE c.id = $1 AND p.is_archived = FALSE`, r.columns(), r.parent.Name, r.parent.LinkColumn)

	c, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// Update rewrites content and range of a comment on an active parent.
func (r *SQLRepository) Update(ctx context.Context, c *models.Comment) error {
	query := fmt.Sprintf(`
		UPDATE comments SET content = $2, range_start = $3, range_end = $4, updated_at = $5
		WHERE id = $1 AND %s`, r.activeParent())

	res, err := r.db.ExecContext(ctx, query, c.ID, c.Content, c.Range.Start, c.Range.End, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM comments WHERE id = $1 AND %s`, r.activeParent())

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// ListByParent returns the comments of one revision, archived or not, oldest first.
func (r *SQLRepository) ListByParent(ctx context.Context, parentID int64) ([]*models.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM comments c WHERE c.%s = $1 ORDER BY c.id`,
		r.columns(), r.parent.LinkColumn)

	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (*models.Comment, error) {
	c := &models.Comment{}
	var parent sql.NullInt64
	var author sql.NullString

	err := s.Scan(&c.ID, &parent, &author, &c.Content, &c.Range.Start, &c.Range.End, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ParentID = parent.Int64
	c.AuthorID = author.String
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
