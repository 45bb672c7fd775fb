package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserValidate(t *testing.T) {
	t.Run("lower-cases email", func(t *testing.T) {
		u := &User{Email: "Test1@Test.com", Name: "test1", Password: "pw"}
		require.NoError(t, u.Validate())
		assert.Equal(t, "test1@test.com", u.Email)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		for _, email := range []string{"", "not-an-email", "Bob <bob@example.com>"} {
			u := &User{Email: email, Name: "bob", Password: "pw"}
			assert.ErrorIs(t, u.Validate(), ErrInvalidFields, email)
		}
	})

	t.Run("requires name", func(t *testing.T) {
		u := &User{Email: "a@b.c", Password: "pw"}
		assert.ErrorIs(t, u.Validate(), ErrInvalidFields)
	})

	t.Run("requires password or hash", func(t *testing.T) {
		u := &User{Email: "a@b.c", Name: "a"}
		assert.ErrorIs(t, u.Validate(), ErrInvalidFields)

		u.PasswordHash = "$2a$10$existing"
		assert.NoError(t, u.Validate())
	})

	t.Run("bounds password length", func(t *testing.T) {
		u := &User{Email: "a@b.c", Name: "a", Password: strings.Repeat("a", MaxPasswordLength)}
		assert.NoError(t, u.Validate())

		u.Password = strings.Repeat("a", MaxPasswordLength+1)
		assert.ErrorIs(t, u.Validate(), ErrInvalidFields)
	})
}

func TestUserPassword(t *testing.T) {
	u := &User{Email: "a@b.c", Name: "a"}
	require.NoError(t, u.SetPassword("s3cret"))

	assert.Empty(t, u.Password)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, u.CheckPassword("s3cret"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.False(t, (&User{}).CheckPassword(""))
}

func TestUserJSONOmitsSecrets(t *testing.T) {
	u := User{PrimaryKey: 1, Email: "a@b.c", Name: "a", PasswordHash: "hash"}

	out, err := json.Marshal(u)
	require.NoError(t, err)

	assert.JSONEq(t, `{"primaryKey":1,"email":"a@b.c","name":"a"}`, string(out))
}
