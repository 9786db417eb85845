package storage

import (
	"context"
	"time"
)

// Broker mints short-lived signed URLs against derived keys using the
// elevated store. It never accepts a caller-supplied path: every key it
// sees comes out of the deriver after the caller's team membership has
// been checked. Issuance is fire-and-forget; the broker does not track
// whether a credential is ever used, idle ones simply expire.
type Broker struct {
	store        ElevatedStore
	rawBucket    string
	parsedBucket string
	uploadTTL    time.Duration
	downloadTTL  time.Duration
	now          func() time.Time
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithClock replaces the broker's clock. Expiry timestamps in issued
// credentials come from this clock.
func WithClock(now func() time.Time) BrokerOption {
	return func(b *Broker) { b.now = now }
}

// NewBroker creates a Broker over the elevated store.
func NewBroker(store ElevatedStore, rawBucket, parsedBucket string, uploadTTL, downloadTTL time.Duration, opts ...BrokerOption) *Broker {
	b := &Broker{
		store:        store,
		rawBucket:    rawBucket,
		parsedBucket: parsedBucket,
		uploadTTL:    uploadTTL,
		downloadTTL:  downloadTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// UploadURL issues a single-PUT credential for a raw capture key. The
// object does not exist yet; nothing is statted.
func (b *Broker) UploadURL(ctx context.Context, key string) (SignedURL, error) {
	u, err := b.store.PresignUpload(ctx, b.rawBucket, key, b.uploadTTL)
	if err != nil {
		return SignedURL{}, err
	}
	return SignedURL{URL: u, ExpiresAt: b.now().Add(b.uploadTTL)}, nil
}

// DownloadURL issues a short-lived read credential for a parsed artifact
// key. The object is statted first so that an artifact the worker has not
// produced yet surfaces as ErrObjectNotFound instead of a signed URL that
// will 404.
func (b *Broker) DownloadURL(ctx context.Context, key string) (SignedURL, error) {
	if err := b.store.StatObject(ctx, b.parsedBucket, key); err != nil {
		return SignedURL{}, err
	}

	u, err := b.store.PresignDownload(ctx, b.parsedBucket, key, b.downloadTTL)
	if err != nil {
		return SignedURL{}, err
	}
	return SignedURL{URL: u, ExpiresAt: b.now().Add(b.downloadTTL)}, nil
}
