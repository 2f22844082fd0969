package cache

import (
	"context"

	"github.com/hatamake/kokoto-httpd/internal/logging"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

// Invalidator drops cached values after a committed write. Implementations
// must not return errors; a failed invalidation is only logged.
type Invalidator interface {
	// Revisions is called after revisions of kind changed. ids names the
	// rows known to be affected and may be empty.
	Revisions(ctx context.Context, kind models.RevisionKind, ids ...int64)
	// TagSearches is called after any tag title, color or count changed.
	TagSearches(ctx context.Context)
}

// CoarseInvalidator clears a whole namespace on every call and ignores ids.
type CoarseInvalidator struct {
	store Store
	log   logging.Logger
}

func NewCoarseInvalidator(store Store, log logging.Logger) *CoarseInvalidator {
	return &CoarseInvalidator{store: store, log: log.With("module", "cache")}
}

func (i *CoarseInvalidator) Revisions(ctx context.Context, kind models.RevisionKind, _ ...int64) {
	i.clear(ctx, RevisionNamespace(kind))
}

func (i *CoarseInvalidator) TagSearches(ctx context.Context) {
	i.clear(ctx, NamespaceTagSearch)
}

func (i *CoarseInvalidator) clear(ctx context.Context, ns Namespace) {
	if err := i.store.Clear(ctx, ns.Pattern()); err != nil {
		i.log.Warn(ctx, "cache invalidation failed", "namespace", string(ns), "error", err)
	}
}
