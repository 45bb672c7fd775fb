package gorm

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server/store"
)

var getUserByEmailSQL = regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"primary_key", "email", "name", "password_hash"})
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUsersStoreAddHashesPassword(t *testing.T) {
	db, mock := newMockDB(t)
	users := NewUsersStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE email = $1`)).
		WithArgs("test1@test.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users" ("email","name","password_hash") VALUES ($1,$2,$3) RETURNING "primary_key"`)).
		WithArgs("test1@test.com", "test1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"primary_key"}).AddRow(1))
	mock.ExpectCommit()

	got, err := users.Add(model.User{Email: "Test1@Test.com", Name: "test1", Password: "test1"})
	require.NoError(t, err)

	assert.Equal(t, 1, got.PrimaryKey)
	assert.Empty(t, got.Password)
	assert.True(t, got.CheckPassword("test1"))
}

func TestUsersStoreAddRequiresPassword(t *testing.T) {
	db, _ := newMockDB(t)
	users := NewUsersStore(db)

	_, err := users.Add(model.User{Email: "a@b.c", Name: "a"})
	assert.ErrorIs(t, err, store.ErrInvalidFields)
}

func TestUsersStoreUpdateKeepsPasswordHash(t *testing.T) {
	db, mock := newMockDB(t)
	users := NewUsersStore(db)
	getUserSQL := regexp.QuoteMeta(`SELECT * FROM "users" WHERE primary_key = $1`)

	mock.ExpectQuery(getUserSQL).WithArgs(1).
		WillReturnRows(userRows().AddRow(1, "a@b.c", "A", "existing-hash"))
	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(getUserSQL).WithArgs(1).
		WillReturnRows(userRows().AddRow(1, "a@b.c", "A", "existing-hash"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE email = $1 AND primary_key <> $2`)).
		WithArgs("a@b.c", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "email"=$1,"name"=$2,"password_hash"=$3 WHERE "primary_key" = $4`)).
		WithArgs("a@b.c", "Renamed", "existing-hash", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := users.Update(model.User{PrimaryKey: 1, Email: "a@b.c", Name: "Renamed"})
	assert.NoError(t, err)
}

func TestUsersStoreUpdateUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	users := NewUsersStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE primary_key = $1`)).WithArgs(5).
		WillReturnRows(userRows())

	err := users.Update(model.User{PrimaryKey: 5, Email: "a@b.c", Name: "A"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersStoreAuthenticate(t *testing.T) {
	hash := hashFor(t, "s3cret")

	t.Run("matching password", func(t *testing.T) {
		db, mock := newMockDB(t)
		users := NewUsersStore(db)

		mock.ExpectQuery(getUserByEmailSQL).WithArgs("a@b.c").
			WillReturnRows(userRows().AddRow(1, "a@b.c", "A", hash))

		user, err := users.Authenticate(" A@B.c ", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, 1, user.PrimaryKey)
	})

	t.Run("wrong password", func(t *testing.T) {
		db, mock := newMockDB(t)
		users := NewUsersStore(db)

		mock.ExpectQuery(getUserByEmailSQL).WithArgs("a@b.c").
			WillReturnRows(userRows().AddRow(1, "a@b.c", "A", hash))

		_, err := users.Authenticate("a@b.c", "nope")
		assert.ErrorIs(t, err, store.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		db, mock := newMockDB(t)
		users := NewUsersStore(db)

		mock.ExpectQuery(getUserByEmailSQL).WithArgs("x@y.z").WillReturnRows(userRows())

		_, err := users.Authenticate("x@y.z", "s3cret")
		assert.ErrorIs(t, err, store.ErrInvalidCredentials)
	})
}
