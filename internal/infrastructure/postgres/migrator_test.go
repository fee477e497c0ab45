package postgres

import (
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	up, _, err := src.ReadUp(version)
	require.NoError(t, err)
	defer up.Close()
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS categories")
	assert.Contains(t, string(body), "REFERENCES categories (code) ON DELETE RESTRICT")

	down, _, err := src.ReadDown(version)
	require.NoError(t, err)
	require.NoError(t, down.Close())

	next, err := src.Next(version)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
	up2, _, err := src.ReadUp(next)
	require.NoError(t, err)
	defer up2.Close()
	body, err = io.ReadAll(up2)
	require.NoError(t, err)
	assert.Contains(t, string(body), "products (created_at, id)")
}
