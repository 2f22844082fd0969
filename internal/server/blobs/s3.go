// Package blobs hands out presigned S3 URLs for file content. The server never
// streams blob bytes itself; clients upload and download directly.
package blobs

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	now = time.Now
)

const presignExpiry = 15 * time.Minute

type Options struct {
	Region   string
	User     string
	Password string
	Bucket   string
	// Endpoint overrides the AWS endpoint, e.g. a MinIO address. Path style
	// addressing is used whenever it is set.
	Endpoint string
}

type Presigner struct {
	opts Options
}

func NewPresigner(opts Options) *Presigner {
	return &Presigner{opts: opts}
}

// NewStorageKey returns a fresh object key grouped by upload date.
func NewStorageKey() string {
	d := now()
	return fmt.Sprintf("files/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (p *Presigner) client(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.opts.User,
			p.opts.Password,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if p.opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// UploadURL allocates a storage key and returns it with a presigned PUT URL.
func (p *Presigner) UploadURL(ctx context.Context) (string, string, error) {
	pc, err := p.client(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := p.opts.Bucket
	key := NewStorageKey()

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// DownloadURL returns a presigned GET URL for key.
func (p *Presigner) DownloadURL(ctx context.Context, key string) (string, error) {
	pc, err := p.client(ctx)
	if err != nil {
		return "", err
	}

	bucket := p.opts.Bucket

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
