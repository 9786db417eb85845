package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ClientConfig carries everything needed to reach an S3-compatible
// endpoint with one credential pair.
type ClientConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioStore implements both capability tiers over minio-go; construct it
// with the credential pair matching the tier you hand out.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore creates a MinioStore for the given endpoint and credentials.
func NewMinioStore(cfg ClientConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

// PresignUpload returns a URL authorizing a single PUT to the key.
func (s *MinioStore) PresignUpload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presigning upload for %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}

// PresignDownload returns a read-only URL for the key.
func (s *MinioStore) PresignDownload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presigning download for %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}

// StatObject checks that an object exists behind the key.
func (s *MinioStore) StatObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket") {
			return ErrObjectNotFound
		}
		return fmt.Errorf("statting %s/%s: %w", bucket, key, err)
	}
	return nil
}

// BucketExists reports whether the bucket is reachable and present.
func (s *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	ok, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	return ok, nil
}
