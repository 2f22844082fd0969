package users

import (
	"context"

	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, cursor string, limit int) ([]*models.User, error)
}
