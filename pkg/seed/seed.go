// Package seed inserts bootstrap data at startup.
package seed

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/projectbackend/backend/pkg/config"
	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server/store"
)

// EnsureUser makes sure the configured seed user exists.
// Failures are logged and never returned, so it is safe to call on every start.
// Reports whether a user was created.
func EnsureUser(users store.UsersStore, cfg *config.BackendConfig) bool {
	if !cfg.SeedUserEnabled {
		return false
	}

	logger := log.With().Str("email", cfg.SeedUserEmail).Logger()

	if _, err := users.GetByNaturalKey(cfg.SeedUserEmail); err == nil {
		logger.Debug().Msg("Seed user already exists")
		return false
	} else if !errors.Is(err, store.ErrNotFound) {
		logger.Warn().Err(err).Msg("Failed to look up seed user")
		return false
	}

	created, err := users.Add(model.User{
		Email:    cfg.SeedUserEmail,
		Name:     cfg.SeedUserName,
		Password: cfg.SeedUserPassword,
	})
	switch {
	case errors.Is(err, store.ErrDuplicateKey):
		logger.Debug().Msg("Seed user already exists")
		return false
	case err != nil:
		logger.Warn().Err(err).Msg("Failed to create seed user")
		return false
	}

	logger.Info().Int("primary_key", created.PrimaryKey).Msg("Created seed user")
	return true
}
