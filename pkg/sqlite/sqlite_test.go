package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kettlebase/migrate/pkg/sqlite"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("creates the database file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.db")

		db, err := sqlite.Open(path)
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = db.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY)")
		require.NoError(t, err)

		_, err = os.Stat(path)
		require.NoError(t, err)
	})

	t.Run("uses the rollback journal", func(t *testing.T) {
		// Snapshots copy a single file, so the database must not run in WAL
		// mode where state lives in sidecar files.
		db, err := sqlite.Open(filepath.Join(t.TempDir(), "app.db"))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		var mode string
		require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
		require.Equal(t, "delete", mode)
	})

	t.Run("enforces foreign keys", func(t *testing.T) {
		db, err := sqlite.Open(filepath.Join(t.TempDir(), "app.db"))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = db.Exec("CREATE TABLE parents (id INTEGER PRIMARY KEY); CREATE TABLE children (id INTEGER PRIMARY KEY, parent_id INTEGER NOT NULL REFERENCES parents (id));")
		require.NoError(t, err)

		_, err = db.Exec("INSERT INTO children (id, parent_id) VALUES (1, 999)")
		require.Error(t, err)
		require.Contains(t, err.Error(), "FOREIGN KEY")
	})
}

func TestOpenReadOnly(t *testing.T) {
	t.Run("allows reads and rejects writes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.db")

		rw, err := sqlite.Open(path)
		require.NoError(t, err)
		_, err = rw.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY); INSERT INTO users (id) VALUES (1);")
		require.NoError(t, err)
		require.NoError(t, rw.Close())

		ro, err := sqlite.OpenReadOnly(path)
		require.NoError(t, err)
		defer func() { _ = ro.Close() }()

		var count int
		require.NoError(t, ro.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
		require.Equal(t, 1, count)

		_, err = ro.Exec("INSERT INTO users (id) VALUES (2)")
		require.Error(t, err)
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		_, err := sqlite.OpenReadOnly(filepath.Join(t.TempDir(), "nope.db"))
		require.Error(t, err)
	})
}
