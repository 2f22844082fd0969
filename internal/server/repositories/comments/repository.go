package comments

import (
	"context"

	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	Update(ctx context.Context, c *models.Comment) error
	Delete(ctx context.Context, id int64) error
	ListByParent(ctx context.Context, parentID int64) ([]*models.Comment, error)
}
