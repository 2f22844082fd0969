package cache

import (
	"context"
	"encoding/json"

	"github.com/hatamake/kokoto-httpd/internal/logging"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

// Cache stores revisions and tag search pages as JSON on top of a Store.
type Cache struct {
	store Store
	log   logging.Logger
}

func New(store Store, log logging.Logger) *Cache {
	return &Cache{store: store, log: log.With("module", "cache")}
}

func (c *Cache) Store() Store {
	return c.store
}

// Revision returns the cached revision, or false on a miss or a cache error.
func (c *Cache) Revision(ctx context.Context, kind models.RevisionKind, id int64) (*models.Revision, bool) {
	key := RevisionKey(kind, id)

	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn(ctx, "cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	rev := &models.Revision{Kind: kind}
	if err := json.Unmarshal(b, rev); err != nil {
		c.log.Warn(ctx, "cache entry malformed", "key", key, "error", err)
		return nil, false
	}
	if rev.Tags == nil {
		rev.Tags = []*models.Tag{}
	}
	if rev.Comments == nil {
		rev.Comments = []*models.Comment{}
	}
	return rev, true
}

func (c *Cache) PutRevision(ctx context.Context, rev *models.Revision) {
	key := RevisionKey(rev.Kind, rev.ID)

	b, err := json.Marshal(rev)
	if err != nil {
		c.log.Warn(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, b); err != nil {
		c.log.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
}

// TagPage returns the cached page of a tag search at cursor.
func (c *Cache) TagPage(ctx context.Context, query, cursor string) (*models.Page[*models.Tag], bool) {
	key := TagSearchKey(query)

	b, ok, err := c.store.HGet(ctx, key, cursor)
	if err != nil {
		c.log.Warn(ctx, "cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	page := &models.Page[*models.Tag]{}
	if err := json.Unmarshal(b, page); err != nil {
		c.log.Warn(ctx, "cache entry malformed", "key", key, "error", err)
		return nil, false
	}
	return page, true
}

func (c *Cache) PutTagPage(ctx context.Context, query, cursor string, page *models.Page[*models.Tag]) {
	key := TagSearchKey(query)

	b, err := json.Marshal(page)
	if err != nil {
		c.log.Warn(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.HSet(ctx, key, cursor, b); err != nil {
		c.log.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
}
