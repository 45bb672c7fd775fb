package store

// Entity is a persisted record with a system-assigned primary key and a
// caller-assigned unique natural key
type Entity interface {
	PrimaryKeyValue() int
	SetPrimaryKey(key int)
	NaturalKeyValue() string

	// Validate normalises the entity in place and returns an error wrapping
	// ErrInvalidFields when a required field is empty or malformed.
	Validate() error
}

// EntityPtr constrains a type parameter to pointers to E that implement Entity
type EntityPtr[E any] interface {
	*E
	Entity
}

// EntityStore abstracts persistence of one entity type.
// Every mutating operation is written through before it returns.
type EntityStore[E any] interface {
	// List returns every entity ordered by primary key.
	List() ([]E, error)

	// Get returns the entity with the given primary key.
	// Returns ErrNotFound if it doesn't exist.
	Get(primaryKey int) (*E, error)

	// GetByNaturalKey returns the entity with the given natural key.
	// Returns ErrNotFound if it doesn't exist.
	GetByNaturalKey(key string) (*E, error)

	// Add validates candidate, assigns it a fresh primary key and persists it.
	// Returns ErrInvalidFields or ErrDuplicateKey without writing anything.
	Add(candidate E) (*E, error)

	// Update replaces the entity with the same primary key.
	// Returns ErrNotFound, ErrInvalidFields or ErrDuplicateKey without writing anything.
	// The natural key may change as long as no other entity uses the new one.
	Update(entity E) error

	// Delete removes the entity with the given primary key.
	// Returns ErrNotFound if nothing was removed.
	Delete(primaryKey int) error
}
