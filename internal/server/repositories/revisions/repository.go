package revisions

import (
	"context"
	"time"

	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

// Repository stores revision rows of one table (documents or files) and the
// links between those rows and tags.
type Repository interface {
	Create(ctx context.Context, rev *models.Revision) error
	GetByID(ctx context.Context, id int64) (*models.Revision, error)
	Archive(ctx context.Context, id int64, at time.Time) error

	ListActive(ctx context.Context, cursor int64, limit int) ([]*models.Revision, error)
	ListHistory(ctx context.Context, historyID string, cursor int64, limit int) ([]*models.Revision, error)
	ListByTag(ctx context.Context, tagID int64, cursor int64, limit int) ([]*models.Revision, error)
	SearchText(ctx context.Context, query string, cursor int64, limit int) ([]*models.Revision, error)

	LinkTags(ctx context.Context, id int64, tagIDs []int64) error
	TagsOf(ctx context.Context, id int64) ([]*models.Tag, error)
	TagsFor(ctx context.Context, ids []int64) (map[int64][]*models.Tag, error)

	DuplicateActive(ctx context.Context) ([]string, error)
}
