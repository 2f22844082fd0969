package services

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocuments(t *testing.T, svc *RevisionService, n int, tags ...string) []*models.Revision {
	t.Helper()
	out := make([]*models.Revision, 0, n)
	for i := 0; i < n; i++ {
		doc, err := svc.Create(context.Background(), models.RevisionInput{
			Title:   fmt.Sprintf("doc %d", i),
			Content: fmt.Sprintf("body %d", i),
			Tags:    tagInputs(tags...),
		})
		require.NoError(t, err)
		out = append(out, doc)
	}
	return out
}

func TestSearchDate_Paginates(t *testing.T) {
	env := newTestEnv(t, 2)
	svc := NewDocumentService(env.deps)
	ctx := context.Background()

	docs := seedDocuments(t, svc, 5)

	var seen []int64
	var cursor int64
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5, "pagination does not terminate")

		page, err := svc.Search(ctx, SearchQuery{Mode: SearchDate, Cursor: cursor})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page.Items), 2)
		for _, r := range page.Items {
			seen = append(seen, r.ID)
			assert.NotNil(t, r.Tags)
		}
		if page.NextCursor == "" {
			break
		}
		cursor, err = strconv.ParseInt(page.NextCursor, 10, 64)
		require.NoError(t, err)
	}

	want := make([]int64, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		want = append(want, docs[i].ID)
	}
	assert.Equal(t, want, seen, "newest first, no gaps, no repeats")
}

func TestSearchDate_SkipsArchived(t *testing.T) {
	env := newTestEnv(t, 20)
	svc := NewDocumentService(env.deps)
	ctx := context.Background()

	docs := seedDocuments(t, svc, 2)
	require.NoError(t, svc.Archive(ctx, docs[0].ID))

	page, err := svc.Search(ctx, SearchQuery{Mode: SearchDate})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, docs[1].ID, page.Items[0].ID)
	assert.Empty(t, page.NextCursor)
}

func TestSearchHistory(t *testing.T) {
	env := newTestEnv(t, 20)
	svc := NewDocumentService(env.deps)
	ctx := context.Background()

	v1, err := svc.Create(ctx, models.RevisionInput{Title: "t", Content: "1"})
	require.NoError(t, err)
	v2, err := svc.Update(ctx, v1.ID, models.RevisionInput{Title: "t", Content: "2"})
	require.NoError(t, err)
	v3, err := svc.Update(ctx, v2.ID, models.RevisionInput{Title: "t", Content: "3"})
	require.NoError(t, err)

	page, err := svc.Search(ctx, SearchQuery{Mode: SearchHistory, Query: v1.HistoryID})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{page.Items[0].Revision, page.Items[1].Revision, page.Items[2].Revision})
	assert.True(t, page.Items[1].IsArchived)

	page, err = svc.History(ctx, v1.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, v3.ID, page.Items[0].ID)

	_, err = svc.History(ctx, 404, 0)
	assert.True(t, common.IsKind(err, common.KindNotFound))

	_, err = svc.Search(ctx, SearchQuery{Mode: SearchHistory, Query: "not-a-uuid"})
	e := common.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, common.KindNotFound, e.Kind)
	assert.Equal(t, common.MsgHistoryNotExist, e.MessageID)

	_, err = svc.Search(ctx, SearchQuery{Mode: SearchHistory, Query: "6f1c2b4e-8a1d-4a55-9c6e-1f0a8d2c3b4e"})
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestSearchTag(t *testing.T) {
	env := newTestEnv(t, 20)
	svc := NewDocumentService(env.deps)
	ctx := context.Background()

	tagged := seedDocuments(t, svc, 2, "go")
	seedDocuments(t, svc, 1, "rust")

	tagID := tagged[0].Tags[0].ID
	page, err := svc.Search(ctx, SearchQuery{Mode: SearchTag, Query: strconv.FormatInt(tagID, 10)})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, r := range page.Items {
		require.Len(t, r.Tags, 1)
		assert.Equal(t, "go", r.Tags[0].Title)
	}

	_, err = svc.Search(ctx, SearchQuery{Mode: SearchTag, Query: "go"})
	assert.True(t, common.IsKind(err, common.KindValidation))

	_, err = svc.Search(ctx, SearchQuery{Mode: SearchTag, Query: "9999"})
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestSearchText(t *testing.T) {
	env := newTestEnv(t, 20)
	svc := NewDocumentService(env.deps)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.RevisionInput{Title: "Release notes", Content: "nothing here"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.RevisionInput{Title: "misc", Content: "the RELEASE is near"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.RevisionInput{Title: "100% done", Content: "x"})
	require.NoError(t, err)

	page, err := svc.Search(ctx, SearchQuery{Mode: SearchText, Query: "release"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = svc.Search(ctx, SearchQuery{Mode: SearchText, Query: "%"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1, "wildcards match literally")
	assert.Equal(t, "100% done", page.Items[0].Title)

	page, err = svc.Search(ctx, SearchQuery{Mode: SearchText, Query: "absent"})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestSearch_InvalidQuery(t *testing.T) {
	env := newTestEnv(t, 20)
	svc := NewDocumentService(env.deps)

	_, err := svc.Search(context.Background(), SearchQuery{Mode: "author"})
	assert.True(t, common.IsKind(err, common.KindValidation))

	_, err = svc.Search(context.Background(), SearchQuery{Mode: SearchDate, Cursor: -1})
	assert.True(t, common.IsKind(err, common.KindValidation))
}
