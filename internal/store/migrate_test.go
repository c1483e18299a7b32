package store

import (
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, name, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Contains(t, name, "conversations")
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS conversations")

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	_ = down.Close()
}

func TestMigrationURL(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"postgres://u:p@db:5432/chat?sslmode=disable":   "pgx5://u:p@db:5432/chat?sslmode=disable",
		"postgresql://u:p@db:5432/chat?sslmode=disable": "pgx5://u:p@db:5432/chat?sslmode=disable",
		"pgx5://already": "pgx5://already",
	}
	for in, want := range cases {
		assert.Equal(t, want, migrationURL(in))
	}
}
