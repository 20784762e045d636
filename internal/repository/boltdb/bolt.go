// Package boltdb stores ledger blobs and processed webhook keys in a single BoltDB file.
package boltdb

import (
	"context"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/jeffleon2/draftea-checkout-service/internal/repository"
)

const (
	blobBucket  = "blobs"
	eventBucket = "webhook_events"
)

type Store struct {
	db *bolt.DB
}

// New opens (or creates) the database at path and ensures both buckets exist.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{blobBucket, eventBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns a copy of the value; bolt memory is only valid inside the transaction.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(blobBucket)).Get([]byte(key))
		if v == nil {
			return repository.ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, key string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(blobBucket)).Put([]byte(key), data)
	})
}

// Delete is a no-op for missing keys.
func (s *Store) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(blobBucket)).Delete([]byte(key))
	})
}

func (s *Store) MarkProcessed(_ context.Context, key string) (bool, error) {
	first := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(eventBucket))
		if b.Get([]byte(key)) != nil {
			return nil
		}
		first = true
		return b.Put([]byte(key), []byte(time.Now().UTC().Format(time.RFC3339Nano)))
	})
	if err != nil {
		return false, err
	}
	return first, nil
}
