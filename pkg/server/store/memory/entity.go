package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/projectbackend/backend/pkg/server/store"
)

// EntityStore implements store.EntityStore in memory. It is safe for
// concurrent use; one mutex covers the uniqueness check and the write.
type EntityStore[E any, P store.EntityPtr[E]] struct {
	mu       sync.RWMutex
	name     string
	nextKey  int
	entities map[int]E
}

// NewEntityStore creates an empty EntityStore. name is used in error messages.
func NewEntityStore[E any, P store.EntityPtr[E]](name string) *EntityStore[E, P] {
	return &EntityStore[E, P]{name: name, nextKey: 1, entities: make(map[int]E)}
}

func (s *EntityStore[E, P]) List() ([]E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]int, 0, len(s.entities))
	for key := range s.entities {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	entities := make([]E, 0, len(keys))
	for _, key := range keys {
		entities = append(entities, s.entities[key])
	}
	return entities, nil
}

func (s *EntityStore[E, P]) Get(primaryKey int) (*E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, ok := s.entities[primaryKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s with primary key %d", store.ErrNotFound, s.name, primaryKey)
	}
	return &entity, nil
}

func (s *EntityStore[E, P]) GetByNaturalKey(key string) (*E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entity := range s.entities {
		if P(&entity).NaturalKeyValue() == key {
			return &entity, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q", store.ErrNotFound, s.name, key)
}

func (s *EntityStore[E, P]) Add(candidate E) (*E, error) {
	entity := P(&candidate)
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(0, entity.NaturalKeyValue()); err != nil {
		return nil, err
	}
	entity.SetPrimaryKey(s.nextKey)
	s.nextKey++
	s.entities[entity.PrimaryKeyValue()] = candidate
	return &candidate, nil
}

func (s *EntityStore[E, P]) Update(updated E) error {
	entity := P(&updated)
	if err := entity.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entity.PrimaryKeyValue()
	if _, ok := s.entities[key]; !ok {
		return fmt.Errorf("%w: %s with primary key %d", store.ErrNotFound, s.name, key)
	}
	if err := s.checkUnique(key, entity.NaturalKeyValue()); err != nil {
		return err
	}
	s.entities[key] = updated
	return nil
}

func (s *EntityStore[E, P]) Delete(primaryKey int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[primaryKey]; !ok {
		return fmt.Errorf("%w: %s with primary key %d", store.ErrNotFound, s.name, primaryKey)
	}
	delete(s.entities, primaryKey)
	return nil
}

// checkUnique must be called with mu held
func (s *EntityStore[E, P]) checkUnique(self int, naturalKey string) error {
	for key, entity := range s.entities {
		if key != self && P(&entity).NaturalKeyValue() == naturalKey {
			return fmt.Errorf("%w: %s %q already exists", store.ErrDuplicateKey, s.name, naturalKey)
		}
	}
	return nil
}
