package posgrest

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Blob struct {
	ID        string `gorm:"primaryKey"`
	Data      []byte
	UpdatedAt time.Time
}

func (Blob) TableName() string { return "checkout_blobs" }

type ProcessedEvent struct {
	ID          string `gorm:"primaryKey"`
	ProcessedAt time.Time
}

func (ProcessedEvent) TableName() string { return "processed_webhook_events" }

// Store implements the blob and event stores on postgres.
type Store struct {
	blobs  *genericRepository[Blob]
	events *genericRepository[ProcessedEvent]
}

// NewStore migrates both tables and returns a ready store.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Blob{}, &ProcessedEvent{}); err != nil {
		return nil, fmt.Errorf("migrate checkout tables: %w", err)
	}
	return &Store{
		blobs:  New[Blob](db),
		events: New[ProcessedEvent](db),
	}, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.blobs.GetByID(ctx, key)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	return s.blobs.Save(ctx, &Blob{ID: key, Data: data, UpdatedAt: time.Now().UTC()})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.blobs.Delete(ctx, key)
}

func (s *Store) MarkProcessed(ctx context.Context, key string) (bool, error) {
	return s.events.CreateIfAbsent(ctx, &ProcessedEvent{ID: key, ProcessedAt: time.Now().UTC()})
}
