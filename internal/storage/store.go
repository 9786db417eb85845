package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned when the object behind a key does not
// exist yet. For parsed artifacts this is the normal state while the
// parsing worker has not finished; callers translate it to a retryable
// condition, never to an authorization failure.
var ErrObjectNotFound = errors.New("object not found")

// SignedURL is a time-boxed capability for one object-storage key.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// ElevatedStore is the service-credential capability tier. Only the
// signed-URL broker receives it; handlers and services see brokered URLs,
// never the credentials behind them.
type ElevatedStore interface {
	PresignUpload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	PresignDownload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	// StatObject reports ErrObjectNotFound when the key has no object.
	StatObject(ctx context.Context, bucket, key string) error
}

// TenantScopedStore is the caller-credential capability tier: read-only
// probes with no signing ability. Keeping it a distinct type makes it
// impossible to hand elevated credentials to a component that only needs
// a connectivity check.
type TenantScopedStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
}
