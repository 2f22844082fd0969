package tags

import (
	"context"

	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

type Repository interface {
	FindOrCreate(ctx context.Context, title, color string) (*models.Tag, error)
	DecrementOrDelete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	GetByTitle(ctx context.Context, title string) (*models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, cursor string, limit int) ([]*models.Tag, error)
	Refcounts(ctx context.Context) ([]models.TagRefcount, error)
}
