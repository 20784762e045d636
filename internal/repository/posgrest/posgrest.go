package posgrest

import (
	"context"
	"errors"

	"github.com/jeffleon2/draftea-checkout-service/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// genericRepository is a generic GORM-based repository keyed by an "id" column.
type genericRepository[T interface{}] struct {
	db *gorm.DB
}

// New creates a new generic repository instance for type T.
func New[T interface{}](db *gorm.DB) *genericRepository[T] {
	return &genericRepository[T]{
		db,
	}
}

// GetByID retrieves a single entity by its ID, mapping a missing row to repository.ErrNotFound.
func (r *genericRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// Save inserts or replaces the entity by primary key.
func (r *genericRepository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// CreateIfAbsent inserts entity unless its primary key exists and reports whether a row was written.
func (r *genericRepository[T]) CreateIfAbsent(ctx context.Context, entity *T) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes an entity by its ID.
func (r *genericRepository[T]) Delete(ctx context.Context, id string) error {
	var entity T
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity).Error
}
