package services

import (
	"context"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
)

// BlobSigner hands out presigned URLs for file content.
type BlobSigner interface {
	UploadURL(ctx context.Context) (key string, url string, err error)
	DownloadURL(ctx context.Context, key string) (string, error)
}

// FileService versions files like documents and adds the blob URLs.
type FileService struct {
	*RevisionService
	blobs BlobSigner
}

func NewFileService(d Deps, blobs BlobSigner) *FileService {
	return &FileService{
		RevisionService: newRevisionService(d, models.KindFile),
		blobs:           blobs,
	}
}

// UploadURL allocates a storage key for a new file body.
func (s *FileService) UploadURL(ctx context.Context) (string, string, error) {
	key, url, err := s.blobs.UploadURL(ctx)
	if err != nil {
		return "", "", common.Internal(err)
	}
	return key, url, nil
}

// DownloadURL returns a presigned URL for the body of file revision id.
func (s *FileService) DownloadURL(ctx context.Context, id int64) (string, error) {
	rev, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if rev.StorageKey == "" {
		return "", common.NotFound(common.MsgFileNotExist, common.ErrorNotFound)
	}

	url, err := s.blobs.DownloadURL(ctx, rev.StorageKey)
	if err != nil {
		return "", common.Internal(err)
	}
	return url, nil
}
