package gorm

import (
	"errors"
	"strings"

	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server/store"

	"gorm.io/gorm"
)

// Ensure UsersStore implements store.UsersStore
var _ store.UsersStore = (*UsersStore)(nil)

// UsersStore implements store.UsersStore using GORM
type UsersStore struct {
	*EntityStore[model.User, *model.User]
}

// NewUsersStore creates a new UsersStore
func NewUsersStore(db *gorm.DB) *UsersStore {
	return &UsersStore{NewEntityStore[model.User](db, "users", "email")}
}

// GetByNaturalKey returns the user with the given email, compared case-insensitively.
func (s *UsersStore) GetByNaturalKey(email string) (*model.User, error) {
	return s.EntityStore.GetByNaturalKey(strings.ToLower(strings.TrimSpace(email)))
}

// Add hashes the user's password and inserts it.
func (s *UsersStore) Add(candidate model.User) (*model.User, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if err := hashPassword(&candidate); err != nil {
		return nil, err
	}
	return s.EntityStore.Add(candidate)
}

// Update replaces the user, keeping the stored password hash when no new
// password is given.
func (s *UsersStore) Update(user model.User) error {
	if user.Password == "" {
		existing, err := s.EntityStore.Get(user.PrimaryKey)
		if err != nil {
			return err
		}
		user.PasswordHash = existing.PasswordHash
	}
	if err := user.Validate(); err != nil {
		return err
	}
	if err := hashPassword(&user); err != nil {
		return err
	}
	return s.EntityStore.Update(user)
}

// Authenticate returns the user owning email when password matches its hash.
func (s *UsersStore) Authenticate(email, password string) (*model.User, error) {
	user, err := s.GetByNaturalKey(email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, store.ErrInvalidCredentials
	}
	return user, nil
}

func hashPassword(user *model.User) error {
	if user.Password == "" {
		return nil
	}
	return user.SetPassword(user.Password)
}
