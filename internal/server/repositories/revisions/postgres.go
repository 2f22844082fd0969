// Package revisions persists revision chains. A row is never edited in place
// apart from the one-way flip of is_archived; an update is an archive of the
// active row followed by an insert of its successor.
package revisions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

type SQLRepository struct {
	db    dbx.DBTX
	table Table
}

func NewSQLRepository(db dbx.DBTX, table Table) *SQLRepository {
	return &SQLRepository{db: db, table: table}
}

// Create inserts rev and sets its ID.
func (r *SQLRepository) Create(ctx context.Context, rev *models.Revision) error {
	t := r.table

	cols := fmt.Sprintf("history_id, revision, is_archived, %s, content, parsed_content, author_id, created_at, updated_at", t.NameColumn)
	args := []any{
		rev.HistoryID, rev.Revision, rev.IsArchived, rev.Title, rev.Content, rev.ParsedContent,
		nullString(rev.AuthorID), rev.CreatedAt, rev.UpdatedAt,
	}
	if t.HasStorageKey {
		cols += ", storage_key"
		args = append(args, rev.StorageKey)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
		t.Name, cols, dbx.Placeholders(1, len(args)))

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&rev.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rev.Kind = t.Kind
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Revision, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s r WHERE r.id = $1`, r.table.columns(), r.table.Name)

	rev, err := r.scanRevision(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rev, nil
}

// Archive flips the row to archived only if it is still active. When another
// transaction archived it first, common.ErrVersionConflict is returned.
func (r *SQLRepository) Archive(ctx context.Context, id int64, at time.Time) error {
	query := fmt.Sprintf(
		`UPDATE %s SET is_archived = TRUE, updated_at = $2 WHERE id = $1 AND is_archived = FALSE`,
		r.table.Name)

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// ListActive pages through active rows, newest first. A cursor of 0 starts
// from the newest row; otherwise only rows with id < cursor are returned.
func (r *SQLRepository) ListActive(ctx context.Context, cursor int64, limit int) ([]*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s r
		WHERE r.is_archived = FALSE AND r.id < $1
		ORDER BY r.id DESC
		LIMIT $2`, r.table.columns(), r.table.Name)

	return r.list(ctx, query, startCursor(cursor), limit)
}

// ListHistory pages through every revision of one chain, archived included.
func (r *SQLRepository) ListHistory(ctx context.Context, historyID string, cursor int64, limit int) ([]*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s r
		WHERE r.history_id = $1 AND r.id < $2
		ORDER BY r.id DESC
		LIMIT $3`, r.table.columns(), r.table.Name)

	return r.list(ctx, query, historyID, startCursor(cursor), limit)
}

func (r *SQLRepository) ListByTag(ctx context.Context, tagID int64, cursor int64, limit int) ([]*models.Revision, error) {
	t := r.table
	query := fmt.Sprintf(`
		SELECT %s FROM %s r
		JOIN %s l ON l.%s = r.id
		WHERE l.tag_id = $1 AND r.is_archived = FALSE AND r.id < $2
		ORDER BY r.id DESC
		LIMIT $3`, t.columns(), t.Name, t.LinkTable, t.LinkColumn)

	return r.list(ctx, query, tagID, startCursor(cursor), limit)
}

// SearchText matches query case-insensitively against the name and content
// of active rows.
func (r *SQLRepository) SearchText(ctx context.Context, query string, cursor int64, limit int) ([]*models.Revision, error) {
	t := r.table
	q := fmt.Sprintf(`
		SELECT %s FROM %s r
		WHERE r.is_archived = FALSE
			AND (LOWER(r.%s) LIKE $1 ESCAPE '\' OR LOWER(r.content) LIKE $2 ESCAPE '\')
			AND r.id < $3
		ORDER BY r.id DESC
		LIMIT $4`, t.columns(), t.Name, t.NameColumn)

	pattern := dbx.ContainsPattern(query)
	return r.list(ctx, q, pattern, pattern, startCursor(cursor), limit)
}

// LinkTags attaches tags to the revision. Links outlive archiving so the
// history keeps showing the tags a revision had.
func (r *SQLRepository) LinkTags(ctx context.Context, id int64, tagIDs []int64) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, tag_id) VALUES ($1, $2)`, r.table.LinkTable, r.table.LinkColumn)

	for _, tagID := range tagIDs {
		if _, err := r.db.ExecContext(ctx, query, id, tagID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) TagsOf(ctx context.Context, id int64) ([]*models.Tag, error) {
	m, err := r.TagsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	return m[id], nil
}

// TagsFor loads the tags of several revisions with one query.
func (r *SQLRepository) TagsFor(ctx context.Context, ids []int64) (map[int64][]*models.Tag, error) {
	result := make(map[int64][]*models.Tag, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	t := r.table
	query := fmt.Sprintf(`
		SELECT l.%s, tg.id, tg.title, tg.color, tg.count
		FROM %s l JOIN tags tg ON tg.id = l.tag_id
		WHERE l.%s IN (%s)
		ORDER BY tg.title`, t.LinkColumn, t.LinkTable, t.LinkColumn, dbx.Placeholders(1, len(ids)))

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner int64
		tag := &models.Tag{}
		if err := rows.Scan(&owner, &tag.ID, &tag.Title, &tag.Color, &tag.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result[owner] = append(result[owner], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// DuplicateActive returns the history ids that have more than one active row.
func (r *SQLRepository) DuplicateActive(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT history_id FROM %s
		WHERE is_archived = FALSE
		GROUP BY history_id
		HAVING COUNT(*) > 1
		ORDER BY history_id`, r.table.Name)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]*models.Revision, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Revision
	for rows.Next() {
		rev, err := r.scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) scanRevision(s scanner) (*models.Revision, error) {
	rev := &models.Revision{Kind: r.table.Kind}
	var author sql.NullString

	err := s.Scan(&rev.ID, &rev.HistoryID, &rev.Revision, &rev.IsArchived, &rev.Title,
		&rev.Content, &rev.ParsedContent, &rev.StorageKey, &author, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rev.AuthorID = author.String
	rev.CreatedAt = rev.CreatedAt.UTC()
	rev.UpdatedAt = rev.UpdatedAt.UTC()
	return rev, nil
}

func startCursor(cursor int64) int64 {
	if cursor <= 0 {
		return math.MaxInt64
	}
	return cursor
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
