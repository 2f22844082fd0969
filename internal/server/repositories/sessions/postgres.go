// Package sessions stores refresh tokens issued at sign-in.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

// Create stores token for userID, expiring validity from now.
func (r *SQLRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	query := `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, token, userID, now.Add(validity), now); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the session for token or common.ErrorNotFound.
func (r *SQLRepository) Find(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT token, user_id, expires_at, created_at
		FROM sessions
		WHERE token = $1
	`
	s := &models.Session{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&s.Token, &s.UserID, &s.Expires, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Delete consumes a refresh token. A token that is already gone yields
// common.ErrorNotFound, so each token can be rotated once.
func (r *SQLRepository) Delete(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
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

// DeleteByUser signs userID out everywhere.
func (r *SQLRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
