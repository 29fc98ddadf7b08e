package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/kettlebase/migrate/pkg/migrator"
	"github.com/kettlebase/migrate/pkg/sqlite"
	"github.com/stretchr/testify/require"
)

// AppliedMigrations returns the contents of the schema_migrations table in
// primary key order. An empty slice is returned when the table does not
// exist yet.
func AppliedMigrations(t *testing.T, dbPath string) []string {
	t.Helper()

	db, err := sqlite.OpenReadOnly(dbPath)
	require.NoError(t, err, "Failed to open database: %s", dbPath)
	defer func() { _ = db.Close() }()

	set, err := migrator.LoadRevisions(context.Background(), db)
	require.NoError(t, err, "Failed to load revisions from: %s", dbPath)

	return set.Names()
}

// TableExists reports whether a table exists in the database file
func TableExists(t *testing.T, dbPath, table string) bool {
	t.Helper()

	db, err := sqlite.OpenReadOnly(dbPath)
	require.NoError(t, err, "Failed to open database: %s", dbPath)
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(context.Background(),
		"SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	require.NoError(t, err, "Failed to query sqlite_master")
	defer func() { _ = rows.Close() }()

	exists := rows.Next()
	require.NoError(t, rows.Err())

	return exists
}

// RequireNoFile asserts that a file does not exist
func RequireNoFile(t *testing.T, path string) {
	t.Helper()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "File should not exist: %s", path)
}
