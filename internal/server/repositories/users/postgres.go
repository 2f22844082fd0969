// Package users stores user accounts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts user. A taken id yields common.ErrorAlreadyExists.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, password_hash, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.PasswordHash, user.Name, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, password_hash, name, created_at, updated_at FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.PasswordHash, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET name = $2, password_hash = $3, updated_at = $4
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// Delete removes the user. Sessions go with it; authored rows keep a NULL author.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// Search matches id or name by case-insensitive prefix, ordered by id after cursor.
func (r *SQLRepository) Search(ctx context.Context, query string, cursor string, limit int) ([]*models.User, error) {
	q :=
		`SELECT id, password_hash, name, created_at, updated_at FROM users
		 WHERE (LOWER(id) LIKE $1 ESCAPE '\' OR LOWER(name) LIKE $1 ESCAPE '\') AND id > $2
		 ORDER BY id
		 LIMIT $3
		 `

	rows, err := r.db.QueryContext(ctx, q, dbx.PrefixPattern(query), cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
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
