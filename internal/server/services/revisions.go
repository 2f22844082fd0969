package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/logging"
	"github.com/hatamake/kokoto-httpd/internal/server/cache"
	"github.com/hatamake/kokoto-httpd/internal/server/config"
	"github.com/hatamake/kokoto-httpd/internal/server/diff"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/hatamake/kokoto-httpd/internal/server/render"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/comments"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/repomanager"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/revisions"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// messages holds the message ids reported for one revision kind.
type messages struct {
	notExist       string
	alreadyUpdated string
	invalid        string
}

var kindMessages = map[models.RevisionKind]messages{
	models.KindDocument: {common.MsgDocumentNotExist, common.MsgDocumentAlreadyUpdated, common.MsgDocumentInvalid},
	models.KindFile:     {common.MsgFileNotExist, common.MsgFileAlreadyUpdated, common.MsgFileInvalid},
}

// Deps bundles what every content service needs.
type Deps struct {
	DB          *sql.DB
	Repos       repomanager.RepositoryManager
	Cache       *cache.Cache
	Invalidator cache.Invalidator
	Log         logging.Logger
	Config      *config.Config
}

// RevisionService is the versioning engine for one revision kind. An update
// archives the active row and appends its successor in one transaction; an
// archive flips the active row without a successor. Tag counts follow inside
// the same transaction.
type RevisionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	kind        models.RevisionKind
	msg         messages
	cache       *cache.Cache
	invalidator cache.Invalidator
	log         logging.Logger
	pageSize    int

	now          func() time.Time
	newHistoryID func() string

	// BeforeArchive, when set, runs inside the update and archive
	// transactions after the row was read as active and before it is
	// archived. Two concurrent updates of one chain can both pass the
	// active check; the conditional archive then lets only one of them win.
	BeforeArchive func(ctx context.Context, current *models.Revision)
}

func NewDocumentService(d Deps) *RevisionService {
	return newRevisionService(d, models.KindDocument)
}

func newRevisionService(d Deps, kind models.RevisionKind) *RevisionService {
	return &RevisionService{
		db:           d.DB,
		repomanager:  d.Repos,
		kind:         kind,
		msg:          kindMessages[kind],
		cache:        d.Cache,
		invalidator:  d.Invalidator,
		log:          d.Log.With("module", string(kind)),
		pageSize:     pageSizeOf(d.Config),
		now:          time.Now,
		newHistoryID: func() string { return uuid.NewString() },
	}
}

func (s *RevisionService) Kind() models.RevisionKind {
	return s.kind
}

func (s *RevisionService) revisions(db dbx.DBTX) revisions.Repository {
	if s.kind == models.KindFile {
		return s.repomanager.Files(db)
	}
	return s.repomanager.Documents(db)
}

func (s *RevisionService) comments(db dbx.DBTX) comments.Repository {
	if s.kind == models.KindFile {
		return s.repomanager.FileComments(db)
	}
	return s.repomanager.DocumentComments(db)
}

// Create starts a new chain at revision 1.
func (s *RevisionService) Create(ctx context.Context, in models.RevisionInput) (*models.Revision, error) {
	in, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	parsed, err := render.Markdown(in.Content)
	if err != nil {
		return nil, common.Internal(err)
	}

	now := s.now().UTC()
	rev := &models.Revision{
		Kind:          s.kind,
		HistoryID:     s.newHistoryID(),
		Revision:      1,
		Title:         in.Title,
		Content:       in.Content,
		ParsedContent: parsed,
		StorageKey:    in.StorageKey,
		AuthorID:      in.AuthorID,
		Comments:      []*models.Comment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.revisions(tx).Create(ctx, rev); err != nil {
			return err
		}
		tags, err := s.attachTags(ctx, tx, rev.ID, in.Tags)
		if err != nil {
			return err
		}
		rev.Tags = tags
		return nil
	})
	if err != nil {
		return nil, s.classify(err)
	}

	s.log.Info(ctx, "revision created", "id", rev.ID, "history_id", rev.HistoryID)
	s.afterCommit(ctx, len(in.Tags) > 0, rev.ID)
	return rev, nil
}

// Update replaces the active revision id with a successor carrying the same
// history id and revision+1. An archived id is a Conflict.
func (s *RevisionService) Update(ctx context.Context, id int64, in models.RevisionInput) (*models.Revision, error) {
	in, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	parsed, err := render.Markdown(in.Content)
	if err != nil {
		return nil, common.Internal(err)
	}

	var next *models.Revision
	var touchedTags bool

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, released, err := s.archiveActive(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		next = &models.Revision{
			Kind:          s.kind,
			HistoryID:     current.HistoryID,
			Revision:      current.Revision + 1,
			Title:         in.Title,
			Content:       in.Content,
			ParsedContent: parsed,
			StorageKey:    in.StorageKey,
			AuthorID:      in.AuthorID,
			Comments:      []*models.Comment{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if next.StorageKey == "" {
			next.StorageKey = current.StorageKey
		}
		if next.AuthorID == "" {
			next.AuthorID = current.AuthorID
		}

		if err := s.revisions(tx).Create(ctx, next); err != nil {
			if dbx.IsUniqueViolation(err) {
				return common.ErrVersionConflict
			}
			return err
		}
		tags, err := s.attachTags(ctx, tx, next.ID, in.Tags)
		if err != nil {
			return err
		}
		next.Tags = tags
		touchedTags = released > 0 || len(tags) > 0
		return nil
	})
	if err != nil {
		return nil, s.classify(err)
	}

	s.log.Info(ctx, "revision updated", "id", next.ID, "replaces", id, "history_id", next.HistoryID, "revision", next.Revision)
	s.afterCommit(ctx, touchedTags, id, next.ID)
	return next, nil
}

// Archive retires the active revision id without a successor.
func (s *RevisionService) Archive(ctx context.Context, id int64) error {
	var touchedTags bool

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, released, err := s.archiveActive(ctx, tx, id)
		touchedTags = released > 0
		return err
	})
	if err != nil {
		return s.classify(err)
	}

	s.log.Info(ctx, "revision archived", "id", id)
	s.afterCommit(ctx, touchedTags, id)
	return nil
}

// archiveActive loads id, checks it is active, archives it and releases its
// tag references. It returns the row as it was and the number of released tags.
func (s *RevisionService) archiveActive(ctx context.Context, tx dbx.DBTX, id int64) (*models.Revision, int, error) {
	repo := s.revisions(tx)

	current, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if current.IsArchived {
		return nil, 0, common.ErrVersionConflict
	}

	if s.BeforeArchive != nil {
		s.BeforeArchive(ctx, current)
	}

	if err := repo.Archive(ctx, id, s.now().UTC()); err != nil {
		return nil, 0, err
	}

	tags, err := repo.TagsOf(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	tagRepo := s.repomanager.Tags(tx)
	for _, t := range tags {
		err := tagRepo.DecrementOrDelete(ctx, t.ID)
		if errors.Is(err, common.ErrorNotFound) {
			// only a concurrent tag removal explains this; anything else is drift
			s.log.Warn(ctx, "linked tag missing on release", "revision", id, "tag", t.ID)
			continue
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return current, len(tags), nil
}

// attachTags takes one reference on every tag and links it to the revision.
func (s *RevisionService) attachTags(ctx context.Context, tx dbx.DBTX, id int64, in []models.TagInput) ([]*models.Tag, error) {
	result := make([]*models.Tag, 0, len(in))
	if len(in) == 0 {
		return result, nil
	}

	tagRepo := s.repomanager.Tags(tx)
	ids := make([]int64, 0, len(in))
	for _, t := range in {
		tag, err := tagRepo.FindOrCreate(ctx, t.Title, t.Color)
		if err != nil {
			return nil, err
		}
		ids = append(ids, tag.ID)
		result = append(result, tag)
	}

	if err := s.revisions(tx).LinkTags(ctx, id, ids); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns revision id with its tags and comments, through the cache.
func (s *RevisionService) Get(ctx context.Context, id int64) (*models.Revision, error) {
	if rev, ok := s.cache.Revision(ctx, s.kind, id); ok {
		return rev, nil
	}

	rev, err := s.revisions(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}
	if err := s.populate(ctx, rev); err != nil {
		return nil, common.Internal(err)
	}

	s.cache.PutRevision(ctx, rev)
	return rev, nil
}

func (s *RevisionService) populate(ctx context.Context, rev *models.Revision) error {
	tags, err := s.revisions(s.db).TagsOf(ctx, rev.ID)
	if err != nil {
		return err
	}
	cs, err := s.comments(s.db).ListByParent(ctx, rev.ID)
	if err != nil {
		return err
	}

	rev.Tags = tags
	if rev.Tags == nil {
		rev.Tags = []*models.Tag{}
	}
	rev.Comments = cs
	if rev.Comments == nil {
		rev.Comments = []*models.Comment{}
	}
	return nil
}

// History pages through the chain revision id belongs to.
func (s *RevisionService) History(ctx context.Context, id int64, cursor int64) (*models.Page[*models.Revision], error) {
	rev, err := s.revisions(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}
	return s.Search(ctx, SearchQuery{Mode: SearchHistory, Query: rev.HistoryID, Cursor: cursor})
}

// Diff compares revision from with revision to of the same chain. A zero to
// compares from with its predecessor, or with empty content for revision 1.
func (s *RevisionService) Diff(ctx context.Context, from, to int64) ([]diff.Block, error) {
	repo := s.revisions(s.db)

	base, err := repo.GetByID(ctx, from)
	if err != nil {
		return nil, s.classify(err)
	}

	if to == 0 {
		var prevContent string
		prev, err := repo.ListHistory(ctx, base.HistoryID, base.ID, 1)
		if err != nil {
			return nil, common.Internal(err)
		}
		if len(prev) > 0 {
			prevContent = prev[0].Content
		}
		return diff.Compute(prevContent, base.Content), nil
	}

	target, err := repo.GetByID(ctx, to)
	if err != nil {
		return nil, s.classify(err)
	}
	if target.HistoryID != base.HistoryID {
		return nil, common.Validation(common.MsgRequestInvalid)
	}
	return diff.Compute(base.Content, target.Content), nil
}

// afterCommit drops the cache entries a committed write may have changed.
func (s *RevisionService) afterCommit(ctx context.Context, touchedTags bool, ids ...int64) {
	s.invalidator.Revisions(ctx, s.kind, ids...)
	if touchedTags {
		s.invalidator.TagSearches(ctx)
	}
}

func (s *RevisionService) validate(in models.RevisionInput) (models.RevisionInput, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return in, common.Validation(s.msg.invalid)
	}

	seen := make(map[string]bool, len(in.Tags))
	tags := make([]models.TagInput, 0, len(in.Tags))
	for _, t := range in.Tags {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" || (t.Color != "" && !colorPattern.MatchString(t.Color)) {
			return in, common.Validation(common.MsgTagInvalid)
		}
		if seen[t.Title] {
			continue
		}
		seen[t.Title] = true
		tags = append(tags, t)
	}
	in.Tags = tags
	return in, nil
}

// classify turns repository errors into caller-facing ones.
func (s *RevisionService) classify(err error) error {
	var typed *common.Error
	switch {
	case errors.As(err, &typed):
		return typed
	case errors.Is(err, common.ErrorNotFound):
		return common.NotFound(s.msg.notExist, err)
	case errors.Is(err, common.ErrVersionConflict):
		return common.Conflict(s.msg.alreadyUpdated, err)
	default:
		return common.Internal(err)
	}
}
