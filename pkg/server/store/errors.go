package store

import (
	"errors"

	"github.com/projectbackend/backend/pkg/model"
)

// ErrNotFound is returned when no entity has the requested primary or natural key
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when a natural key is already used by a different entity
var ErrDuplicateKey = errors.New("duplicate key")

// ErrInvalidFields is returned when a required field is empty or malformed
var ErrInvalidFields = model.ErrInvalidFields

// ErrInvalidCredentials is returned when an email and password do not match a user
var ErrInvalidCredentials = errors.New("invalid credentials")
