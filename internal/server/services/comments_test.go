package services

import (
	"context"
	"testing"
	"time"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/server/config"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerUser(t *testing.T, env *testEnv, id string) {
	t.Helper()
	users := NewUserService(env.db, env.repos, &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour})
	_, err := users.Register(context.Background(), id, id, "password")
	require.NoError(t, err)
}

func TestCommentService_Lifecycle(t *testing.T) {
	env := newTestEnv(t, 20)
	registerUser(t, env, "kokoto")
	registerUser(t, env, "stranger")
	docs := NewDocumentService(env.deps)
	svc := NewDocumentCommentService(env.deps)
	ctx := context.Background()

	doc, err := docs.Create(ctx, models.RevisionInput{Title: "t", Content: "hello world", AuthorID: "kokoto"})
	require.NoError(t, err)

	c, err := svc.Add(ctx, doc.ID, "kokoto", "nice", models.Range{Start: 0, End: 5})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, doc.ID, c.ParentID)

	got, err := docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "nice", got.Comments[0].Content)

	_, err = svc.Update(ctx, c.ID, "stranger", "mine now", models.Range{})
	assert.True(t, common.IsKind(err, common.KindNotFound), "only the author may edit")

	updated, err := svc.Update(ctx, c.ID, "kokoto", "nicer", models.Range{Start: 6, End: 11})
	require.NoError(t, err)
	assert.Equal(t, "nicer", updated.Content)

	got, err = docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "nicer", got.Comments[0].Content, "comment writes invalidate the cached parent")

	err = svc.Remove(ctx, c.ID, "stranger")
	assert.True(t, common.IsKind(err, common.KindNotFound))
	require.NoError(t, svc.Remove(ctx, c.ID, "kokoto"))

	err = svc.Remove(ctx, c.ID, "kokoto")
	e := common.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, common.MsgCommentNotExist, e.MessageID)
}

func TestCommentService_Validation(t *testing.T) {
	env := newTestEnv(t, 20)
	svc := NewDocumentCommentService(env.deps)
	ctx := context.Background()

	for _, tc := range []struct {
		name    string
		content string
		r       models.Range
	}{
		{"blank", " ", models.Range{}},
		{"negative start", "x", models.Range{Start: -1, End: 2}},
		{"end before start", "x", models.Range{Start: 3, End: 2}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(ctx, 1, "", tc.content, tc.r)
			assert.True(t, common.IsKind(err, common.KindValidation))
		})
	}
}

func TestCommentService_ArchivedParentIsFrozen(t *testing.T) {
	env := newTestEnv(t, 20)
	docs := NewDocumentService(env.deps)
	svc := NewDocumentCommentService(env.deps)
	ctx := context.Background()

	doc, err := docs.Create(ctx, models.RevisionInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	c, err := svc.Add(ctx, doc.ID, "", "note", models.Range{})
	require.NoError(t, err)

	next, err := docs.Update(ctx, doc.ID, models.RevisionInput{Title: "t", Content: "c2"})
	require.NoError(t, err)

	_, err = svc.Add(ctx, doc.ID, "", "late", models.Range{})
	e := common.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, common.KindNotFound, e.Kind)
	assert.Equal(t, common.MsgDocumentNotExist, e.MessageID)

	_, err = svc.Update(ctx, c.ID, "", "edit", models.Range{})
	assert.True(t, common.IsKind(err, common.KindNotFound))

	old, err := docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, old.Comments, 1, "archived revisions keep their comments")

	fresh, err := docs.Get(ctx, next.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Comments, "comments do not move to the successor")

	_, err = svc.Add(ctx, 404, "", "x", models.Range{})
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestFileCommentService_UsesFileParents(t *testing.T) {
	env := newTestEnv(t, 20)
	files := NewFileService(env.deps, &fakeBlobs{})
	docs := NewDocumentService(env.deps)
	svc := NewFileCommentService(env.deps)
	ctx := context.Background()

	f, err := files.Create(ctx, models.RevisionInput{Title: "a.txt", Content: "c", StorageKey: "files/k"})
	require.NoError(t, err)
	// ids of documents and files are independent sequences
	_, err = docs.Create(ctx, models.RevisionInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = svc.Add(ctx, f.ID, "", "about the file", models.Range{})
	require.NoError(t, err)

	got, err := files.Get(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)

	doc, err := docs.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Empty(t, doc.Comments)
}
