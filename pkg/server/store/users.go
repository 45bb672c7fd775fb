package store

import "github.com/projectbackend/backend/pkg/model"

// UsersStore abstracts user storage operations. Users are addressed by email.
//
// Add and Update hash a plaintext Password before persisting. Update keeps the
// stored hash when Password is empty.
type UsersStore interface {
	EntityStore[model.User]

	// Authenticate returns the user owning email when password matches.
	// Returns ErrInvalidCredentials otherwise.
	Authenticate(email, password string) (*model.User, error)
}
