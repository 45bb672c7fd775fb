package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectbackend/backend/pkg/config"
	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server/store/memory"
)

func seedConfig() *config.BackendConfig {
	return &config.BackendConfig{
		SeedUserEnabled:  true,
		SeedUserEmail:    "test1@test.com",
		SeedUserName:     "test1",
		SeedUserPassword: "test1",
	}
}

func TestEnsureUserCreatesOnce(t *testing.T) {
	users := memory.NewUsersStore()
	cfg := seedConfig()

	assert.True(t, EnsureUser(users, cfg))
	assert.False(t, EnsureUser(users, cfg))

	all, err := users.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "test1@test.com", all[0].Email)

	user, err := users.Authenticate("test1@test.com", "test1")
	require.NoError(t, err)
	assert.Equal(t, "test1", user.Name)
}

func TestEnsureUserDisabled(t *testing.T) {
	users := memory.NewUsersStore()
	cfg := seedConfig()
	cfg.SeedUserEnabled = false

	assert.False(t, EnsureUser(users, cfg))

	all, err := users.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEnsureUserInvalidIsNotFatal(t *testing.T) {
	users := memory.NewUsersStore()
	cfg := seedConfig()
	cfg.SeedUserEmail = "not-an-email"

	assert.False(t, EnsureUser(users, cfg))
}

func TestEnsureUserKeepsExistingUser(t *testing.T) {
	users := memory.NewUsersStore()
	_, err := users.Add(model.User{Email: "test1@test.com", Name: "someone", Password: "other"})
	require.NoError(t, err)

	assert.False(t, EnsureUser(users, seedConfig()))

	user, err := users.GetByNaturalKey("test1@test.com")
	require.NoError(t, err)
	assert.Equal(t, "someone", user.Name)
}
