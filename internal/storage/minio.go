package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/afero"

	"github.com/mind-engage/fapquiz/internal/config"
)

const urlExpiry = 24 * time.Hour

// MinIOStore keeps blobs as objects in one bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(ctx context.Context, cfg config.MinIO) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	ok, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !ok {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinIOStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	key = clean(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *MinIOStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.client.GetObject(ctx, s.bucket, clean(key), minio.GetObjectOptions{})
}

func (s *MinIOStore) SignedURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, clean(key), urlExpiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Open picks the store named by cfg.Driver.
func Open(ctx context.Context, cfg config.Protocols, fsys afero.Fs) (BlobStore, error) {
	switch cfg.Driver {
	case "", "fs":
		return NewFSStore(fsys, cfg.BasePath)
	case "minio":
		return NewMinIOStore(ctx, cfg.MinIO)
	}
	return nil, fmt.Errorf("unknown protocols driver %q", cfg.Driver)
}
