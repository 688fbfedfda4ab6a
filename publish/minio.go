package publish

import (
	"context"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/errors"
)

// ContentType is set on every uploaded object
const ContentType = "text/plain; charset=utf-8"

// MinioBucket is a Bucket backed by an S3-compatible endpoint
type MinioBucket struct {
	client   *minio.Client
	name     string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewMinioBucket creates a client for the bucket named in cfg. No request
// is made until the first upload.
func NewMinioBucket(cfg am.PublishConfig) (*MinioBucket, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.InvalidConfigf("publish.endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.InvalidConfigf("publish access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.InvalidConfigf("publish.bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create bucket client")
	}

	return &MinioBucket{client: client, name: bucket, region: region}, nil
}

// Name returns the bucket name
func (b *MinioBucket) Name() string { return b.name }

// Ensure creates the bucket if it does not exist. The check runs once per
// MinioBucket.
func (b *MinioBucket) Ensure(ctx context.Context) error {
	b.initOnce.Do(func() {
		exists, err := b.client.BucketExists(ctx, b.name)
		if err != nil {
			b.initErr = errors.Wrapf(err, "failed to check bucket %s", b.name)
			return
		}
		if exists {
			return
		}
		if err := b.client.MakeBucket(ctx, b.name, minio.MakeBucketOptions{Region: b.region}); err != nil {
			b.initErr = errors.Wrapf(err, "failed to create bucket %s", b.name)
		}
	})
	return b.initErr
}

// Upload stores the file at path under key
func (b *MinioBucket) Upload(ctx context.Context, key, path string) (int64, error) {
	info, err := b.client.FPutObject(ctx, b.name, key, path, minio.PutObjectOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to upload %s", key)
	}
	return info.Size, nil
}
