package services

import (
	"context"
	"testing"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileService_UploadURL(t *testing.T) {
	env := newTestEnv(t, 20)

	key, url, err := NewFileService(env.deps, &fakeBlobs{}).UploadURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "files/new", key)
	assert.Equal(t, "https://put", url)

	_, _, err = NewFileService(env.deps, &fakeBlobs{err: errBoom{}}).UploadURL(context.Background())
	assert.True(t, common.IsKind(err, common.KindInternal))
	assert.ErrorIs(t, err, errBoom{})
}

func TestFileService_DownloadURL(t *testing.T) {
	env := newTestEnv(t, 20)
	blobs := &fakeBlobs{}
	svc := NewFileService(env.deps, blobs)
	ctx := context.Background()

	f, err := svc.Create(ctx, models.RevisionInput{Title: "a.txt", Content: "c", StorageKey: "files/2026/01/02/k"})
	require.NoError(t, err)

	url, err := svc.DownloadURL(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://get/files/2026/01/02/k", url)
	assert.Equal(t, "files/2026/01/02/k", blobs.key)

	bare, err := svc.Create(ctx, models.RevisionInput{Title: "b.txt", Content: "c"})
	require.NoError(t, err)
	_, err = svc.DownloadURL(ctx, bare.ID)
	e := common.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, common.MsgFileNotExist, e.MessageID)

	_, err = svc.DownloadURL(ctx, 404)
	assert.True(t, common.IsKind(err, common.KindNotFound))
}
