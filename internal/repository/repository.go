package repository

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// BlobStore persists opaque values under fixed keys.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// EventStore remembers which processor deliveries were already handled.
type EventStore interface {
	// MarkProcessed records key and reports whether this is the first time it was seen.
	MarkProcessed(ctx context.Context, key string) (bool, error)
}

// Store is implemented by every backend: bolt and postgres.
type Store interface {
	BlobStore
	EventStore
}

// QuotaStore rejects writes larger than Limit bytes with ErrQuotaExceeded.
type QuotaStore struct {
	BlobStore
	Limit int
}

func NewQuotaStore(inner BlobStore, limit int) *QuotaStore {
	return &QuotaStore{BlobStore: inner, Limit: limit}
}

func (q *QuotaStore) Save(ctx context.Context, key string, data []byte) error {
	if q.Limit > 0 && len(data) > q.Limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrQuotaExceeded, len(data), q.Limit)
	}
	return q.BlobStore.Save(ctx, key, data)
}
