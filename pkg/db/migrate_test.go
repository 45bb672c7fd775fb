package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"20240301090000_create_sites.up.sql",
		"20240301090100_create_users.up.sql",
		"20240301090200_create_sessions.up.sql",
		"20240301090300_create_audit_messages.up.sql",
	}, files)
}

func TestWithMigrationsTable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "postgres://localhost/backend",
			want: "postgres://localhost/backend?x-migrations-table=schema_migrations",
		},
		{
			in:   "postgres://localhost/backend?sslmode=disable",
			want: "postgres://localhost/backend?sslmode=disable&x-migrations-table=schema_migrations",
		},
		{
			in:   "postgres://localhost/backend?x-migrations-table=custom",
			want: "postgres://localhost/backend?x-migrations-table=custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, withMigrationsTable(tt.in))
		})
	}
}

func TestMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Connect(Config{})
	assert.ErrorIs(t, err, ErrNoDatabaseURL)

	_, err = Status("")
	assert.ErrorIs(t, err, ErrNoDatabaseURL)

	_, err = MigrateDown("postgres://localhost/backend", 0)
	assert.Error(t, err)
}
