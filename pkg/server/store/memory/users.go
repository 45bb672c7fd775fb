package memory

import (
	"errors"
	"strings"

	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server/store"
)

var _ store.UsersStore = (*UsersStore)(nil)

// UsersStore implements store.UsersStore in memory
type UsersStore struct {
	*EntityStore[model.User, *model.User]
}

// NewUsersStore creates an empty UsersStore
func NewUsersStore() *UsersStore {
	return &UsersStore{NewEntityStore[model.User]("user")}
}

func (s *UsersStore) GetByNaturalKey(email string) (*model.User, error) {
	return s.EntityStore.GetByNaturalKey(strings.ToLower(strings.TrimSpace(email)))
}

func (s *UsersStore) Add(candidate model.User) (*model.User, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if candidate.Password != "" {
		if err := candidate.SetPassword(candidate.Password); err != nil {
			return nil, err
		}
	}
	return s.EntityStore.Add(candidate)
}

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
	if user.Password != "" {
		if err := user.SetPassword(user.Password); err != nil {
			return err
		}
	}
	return s.EntityStore.Update(user)
}

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
