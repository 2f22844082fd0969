// Package tags is the tag registry. Tags are reference counted: a stored tag
// always has count >= 1 and disappears when its last reference is dropped.
// Both refcount operations are single statements so they can run inside the
// caller's transaction without a read-then-write race.
package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

// DefaultColor is used when a tag is first referenced without a color.
const DefaultColor = "#cccccc"

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// FindOrCreate inserts the tag with count 1 or, when the title exists,
// increments its count. A non-empty color overwrites the stored one.
func (r *SQLRepository) FindOrCreate(ctx context.Context, title, color string) (*models.Tag, error) {
	query := `
		INSERT INTO tags (title, color, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (title) DO UPDATE
		SET count = tags.count + 1, color = COALESCE(NULLIF($3, ''), tags.color)
		RETURNING id, title, color, count
	`
	insertColor := color
	if insertColor == "" {
		insertColor = DefaultColor
	}

	tag := &models.Tag{}
	err := r.db.QueryRowContext(ctx, query, title, insertColor, color).
		Scan(&tag.ID, &tag.Title, &tag.Color, &tag.Count)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tag, nil
}

// DecrementOrDelete drops one reference to the tag and deletes the row once
// no reference is left. A missing tag yields common.ErrorNotFound.
func (r *SQLRepository) DecrementOrDelete(ctx context.Context, id int64) error {
	var count int
	err := r.db.QueryRowContext(ctx,
		`UPDATE tags SET count = count - 1 WHERE id = $1 RETURNING count`, id).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1 AND count <= 0`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	tag := &models.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, color, count FROM tags WHERE id = $1`, id).
		Scan(&tag.ID, &tag.Title, &tag.Color, &tag.Count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tag, nil
}

// GetByTitle finds a tag by its exact title without touching its count.
func (r *SQLRepository) GetByTitle(ctx context.Context, title string) (*models.Tag, error) {
	tag := &models.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, color, count FROM tags WHERE title = $1`, title).
		Scan(&tag.ID, &tag.Title, &tag.Color, &tag.Count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tag, nil
}

// Update renames and repaints a tag; the count is left alone. A title owned
// by another tag yields common.ErrorAlreadyExists.
func (r *SQLRepository) Update(ctx context.Context, tag *models.Tag) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tags SET title = $2, color = $3 WHERE id = $1`, tag.ID, tag.Title, tag.Color)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes a tag and, through the foreign keys, every link to it.
func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Search lists tags whose title starts with query, ordered by title after cursor.
func (r *SQLRepository) Search(ctx context.Context, query string, cursor string, limit int) ([]*models.Tag, error) {
	q := `
		SELECT id, title, color, count FROM tags
		WHERE LOWER(title) LIKE $1 ESCAPE '\' AND title > $2
		ORDER BY title
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, q, dbx.PrefixPattern(query), cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Tag
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.ID, &t.Title, &t.Color, &t.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Refcounts reports every tag's stored count next to the number of active
// document and file rows linked to it.
func (r *SQLRepository) Refcounts(ctx context.Context) ([]models.TagRefcount, error) {
	q := `
		SELECT t.id, t.title, t.count,
			(SELECT COUNT(*) FROM document_tags l JOIN documents d ON d.id = l.document_id
			 WHERE l.tag_id = t.id AND d.is_archived = FALSE) +
			(SELECT COUNT(*) FROM file_tags l JOIN files f ON f.id = l.file_id
			 WHERE l.tag_id = t.id AND f.is_archived = FALSE)
		FROM tags t
		ORDER BY t.id
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.TagRefcount
	for rows.Next() {
		var rc models.TagRefcount
		if err := rows.Scan(&rc.TagID, &rc.Title, &rc.Count, &rc.ActiveLinks); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
