package gorm

import (
	"errors"
	"fmt"

	"github.com/projectbackend/backend/pkg/server/store"

	"gorm.io/gorm"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique index violation
const uniqueViolation = "23505"

// EntityStore implements store.EntityStore for any gorm model E using GORM.
//
// Add and Update run the natural key check and the write inside one
// transaction holding a transaction-scoped advisory lock keyed on the table,
// so concurrent writers to the same table cannot both claim a natural key.
type EntityStore[E any, P store.EntityPtr[E]] struct {
	db         *gorm.DB
	table      string
	naturalKey string
}

// NewEntityStore creates a new EntityStore for the given table and natural key column
func NewEntityStore[E any, P store.EntityPtr[E]](db *gorm.DB, table, naturalKey string) *EntityStore[E, P] {
	return &EntityStore[E, P]{db: db, table: table, naturalKey: naturalKey}
}

// List returns every entity ordered by primary key.
func (s *EntityStore[E, P]) List() ([]E, error) {
	entities := []E{}
	if err := s.db.Order("primary_key").Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// Get returns the entity with the given primary key.
func (s *EntityStore[E, P]) Get(primaryKey int) (*E, error) {
	var entity E
	err := s.db.Where("primary_key = ?", primaryKey).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s with primary key %d", store.ErrNotFound, s.table, primaryKey)
		}
		return nil, err
	}
	return &entity, nil
}

// GetByNaturalKey returns the entity with the given natural key.
func (s *EntityStore[E, P]) GetByNaturalKey(key string) (*E, error) {
	var entity E
	err := s.db.Where(s.naturalKey+" = ?", key).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s with %s %q", store.ErrNotFound, s.table, s.naturalKey, key)
		}
		return nil, err
	}
	return &entity, nil
}

// Add validates candidate and inserts it with a database-assigned primary key.
func (s *EntityStore[E, P]) Add(candidate E) (*E, error) {
	entity := P(&candidate)
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	entity.SetPrimaryKey(0)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lock(tx); err != nil {
			return err
		}
		if err := s.checkUnique(tx, entity); err != nil {
			return err
		}
		return tx.Create(entity).Error
	})
	if err != nil {
		return nil, s.translateError(err)
	}
	return &candidate, nil
}

// Update replaces the row sharing the entity's primary key.
func (s *EntityStore[E, P]) Update(updated E) error {
	entity := P(&updated)
	if err := entity.Validate(); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lock(tx); err != nil {
			return err
		}

		var existing E
		err := tx.Where("primary_key = ?", entity.PrimaryKeyValue()).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s with primary key %d", store.ErrNotFound, s.table, entity.PrimaryKeyValue())
			}
			return err
		}

		if err := s.checkUnique(tx, entity); err != nil {
			return err
		}
		return tx.Save(entity).Error
	})
	return s.translateError(err)
}

// Delete removes the row with the given primary key.
func (s *EntityStore[E, P]) Delete(primaryKey int) error {
	tx := s.db.Where("primary_key = ?", primaryKey).Delete(new(E))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: %s with primary key %d", store.ErrNotFound, s.table, primaryKey)
	}
	return nil
}

func (s *EntityStore[E, P]) lock(tx *gorm.DB) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", s.table).Error
}

// checkUnique fails when a different row already uses the entity's natural key
func (s *EntityStore[E, P]) checkUnique(tx *gorm.DB, entity P) error {
	var count int64
	query := tx.Model(new(E)).Where(s.naturalKey+" = ?", entity.NaturalKeyValue())
	if key := entity.PrimaryKeyValue(); key != 0 {
		query = query.Where("primary_key <> ?", key)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s %q already exists", store.ErrDuplicateKey, s.naturalKey, entity.NaturalKeyValue())
	}
	return nil
}

// translateError maps a unique index violation that slipped past the lock to ErrDuplicateKey
func (s *EntityStore[E, P]) translateError(err error) error {
	if err == nil {
		return nil
	}
	var sqlErr interface{ SQLState() string }
	if errors.As(err, &sqlErr) && sqlErr.SQLState() == uniqueViolation {
		return fmt.Errorf("%w: %s already exists", store.ErrDuplicateKey, s.naturalKey)
	}
	return err
}
