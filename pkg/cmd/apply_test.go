package cmd

import (
	"path/filepath"
	"testing"

	"github.com/kettlebase/migrate/pkg/cmd/testutil"
	"github.com/kettlebase/migrate/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func newRootCommand(cfg *config.Config) *cli.Command {
	return rootCommand(Params{
		Config:  cfg,
		Version: &Version{Version: "test"},
	})
}

func runRoot(t *testing.T, fixture *testutil.Fixture) (string, error) {
	t.Helper()

	return testutil.RunCommandCapture(t, newRootCommand(nil), []string{
		"--db", fixture.DBPath,
		"--migrations", fixture.MigrationsDir,
	})
}

func TestApply_FreshDatabase(t *testing.T) {
	fixture := testutil.NewFixture(t).WithMigrations(testutil.MigrationFile{
		Name: "0001_init.sql",
		SQL:  "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL);",
	})

	out, err := runRoot(t, fixture)
	require.NoError(t, err)
	require.Contains(t, out, "ran=1")

	require.FileExists(t, fixture.DBPath)
	require.Equal(t, []string{"0001_init.sql"}, testutil.AppliedMigrations(t, fixture.DBPath))
	require.True(t, testutil.TableExists(t, fixture.DBPath, "users"))

	// No snapshot is taken for a database that didn't exist, and a successful
	// run cleans up after itself either way.
	testutil.RequireNoFile(t, fixture.BackupPath())
}

func TestApply_Rerun(t *testing.T) {
	fixture := testutil.NewFixture(t).WithMigrations(testutil.MigrationFile{
		Name: "0001_init.sql",
		SQL:  "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	})

	out, err := runRoot(t, fixture)
	require.NoError(t, err)
	require.Contains(t, out, "ran=1")

	pre := fixture.ReadDB()

	out, err = runRoot(t, fixture)
	require.NoError(t, err)
	require.Contains(t, out, "ran=0")

	// Nothing pending means the database file is never opened for writing.
	require.Equal(t, pre, fixture.ReadDB())
	require.Equal(t, []string{"0001_init.sql"}, testutil.AppliedMigrations(t, fixture.DBPath))
	testutil.RequireNoFile(t, fixture.BackupPath())
}

func TestApply_OnlyPendingRun(t *testing.T) {
	fixture := testutil.NewFixture(t).WithMigrations(testutil.MigrationFile{
		Name: "0001_init.sql",
		SQL:  "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	})

	_, err := runRoot(t, fixture)
	require.NoError(t, err)

	fixture.WithMigrations(
		testutil.MigrationFile{
			Name: "0002_orders.sql",
			SQL:  "CREATE TABLE orders (id INTEGER PRIMARY KEY);",
		},
		testutil.MigrationFile{
			Name: "0003_index.sql",
			SQL:  "CREATE INDEX idx_orders ON orders (id);",
		},
	)

	out, err := runRoot(t, fixture)
	require.NoError(t, err)
	require.Contains(t, out, "ran=2")

	require.Equal(t,
		[]string{"0001_init.sql", "0002_orders.sql", "0003_index.sql"},
		testutil.AppliedMigrations(t, fixture.DBPath),
	)
}

func TestApply_FailureRestoresBackup(t *testing.T) {
	fixture := testutil.NewFixture(t).WithMigrations(testutil.MigrationFile{
		Name: "0001_init.sql",
		SQL:  "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	})

	_, err := runRoot(t, fixture)
	require.NoError(t, err)

	pre := fixture.ReadDB()

	fixture.WithMigrations(testutil.MigrationFile{
		Name: "0002_broken.sql",
		SQL:  "CREATE TABLE orders (id INTEGER PRIMARY KEY); INSERT INTO missing_table (id) VALUES (1);",
	})

	out, err := runRoot(t, fixture)
	require.Error(t, err)
	require.Contains(t, out, "migration 0002_broken.sql failed")
	require.Contains(t, out, "restored db from backup")

	// The restore puts back the exact pre-run bytes, so nothing from the
	// failed run survives, including the half-applied 0002.
	require.Equal(t, pre, fixture.ReadDB())
	require.Equal(t, []string{"0001_init.sql"}, testutil.AppliedMigrations(t, fixture.DBPath))
	require.False(t, testutil.TableExists(t, fixture.DBPath, "orders"))
	testutil.RequireNoFile(t, fixture.BackupPath())
}

func TestApply_FailureRevertsEarlierMigrationsFromSameRun(t *testing.T) {
	fixture := testutil.NewFixture(t).WithMigrations(testutil.MigrationFile{
		Name: "0001_init.sql",
		SQL:  "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	})

	_, err := runRoot(t, fixture)
	require.NoError(t, err)

	pre := fixture.ReadDB()

	// 0002 applies cleanly and commits before 0003 fails. The restore still
	// rolls the whole run back to the snapshot.
	fixture.WithMigrations(
		testutil.MigrationFile{
			Name: "0002_orders.sql",
			SQL:  "CREATE TABLE orders (id INTEGER PRIMARY KEY);",
		},
		testutil.MigrationFile{
			Name: "0003_broken.sql",
			SQL:  "INSERT INTO missing_table (id) VALUES (1);",
		},
	)

	out, err := runRoot(t, fixture)
	require.Error(t, err)
	require.Contains(t, out, "migration 0003_broken.sql failed")
	require.Contains(t, out, "restored db from backup")

	require.Equal(t, pre, fixture.ReadDB())
	require.Equal(t, []string{"0001_init.sql"}, testutil.AppliedMigrations(t, fixture.DBPath))
	require.False(t, testutil.TableExists(t, fixture.DBPath, "orders"))
	testutil.RequireNoFile(t, fixture.BackupPath())
}

func TestApply_FreshDatabaseFailureRemovesFile(t *testing.T) {
	fixture := testutil.NewFixture(t).WithMigrations(testutil.MigrationFile{
		Name: "0001_broken.sql",
		SQL:  "INSERT INTO missing_table (id) VALUES (1);",
	})

	out, err := runRoot(t, fixture)
	require.Error(t, err)
	require.Contains(t, out, "migration 0001_broken.sql failed")
	require.Contains(t, out, "removed freshly created db")

	// Pre-run state was "no file"; the failed run leaves it that way.
	testutil.RequireNoFile(t, fixture.DBPath)
	testutil.RequireNoFile(t, fixture.BackupPath())
}

func TestApply_MissingMigrationsDir(t *testing.T) {
	fixture := testutil.NewFixture(t)

	out, err := testutil.RunCommandCapture(t, newRootCommand(nil), []string{
		"--db", fixture.DBPath,
		"--migrations", filepath.Join(fixture.Dir, "nope"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "migration directory does not exist")
	require.NotContains(t, out, "ran=")

	// Discovery failures happen before the database is touched.
	testutil.RequireNoFile(t, fixture.DBPath)
}

func TestApply_InvalidMigrationName(t *testing.T) {
	fixture := testutil.NewFixture(t).WithMigrations(testutil.MigrationFile{
		Name: "hotfix.sql",
		SQL:  "CREATE TABLE t (id INTEGER);",
	})

	_, err := runRoot(t, fixture)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid migration name")
	testutil.RequireNoFile(t, fixture.DBPath)
}

func TestApply_ConfigFallback(t *testing.T) {
	fixture := testutil.NewFixture(t).WithMigrations(testutil.MigrationFile{
		Name: "0001_init.sql",
		SQL:  "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	})

	cfg := &config.Config{DB: fixture.DBPath, Dir: fixture.MigrationsDir}

	out, err := testutil.RunCommandCapture(t, newRootCommand(cfg), []string{
		"--db", "",
		"--migrations", "",
	})
	require.NoError(t, err)
	require.Contains(t, out, "ran=1")
	require.Equal(t, []string{"0001_init.sql"}, testutil.AppliedMigrations(t, fixture.DBPath))
}

func TestApply_FlagsOverrideConfig(t *testing.T) {
	fixture := testutil.NewFixture(t).WithMigrations(testutil.MigrationFile{
		Name: "0001_init.sql",
		SQL:  "CREATE TABLE users (id INTEGER PRIMARY KEY);",
	})

	otherDB := filepath.Join(fixture.Dir, "other.db")
	cfg := &config.Config{DB: otherDB, Dir: filepath.Join(fixture.Dir, "nope")}

	out, err := testutil.RunCommandCapture(t, newRootCommand(cfg), []string{
		"--db", fixture.DBPath,
		"--migrations", fixture.MigrationsDir,
	})
	require.NoError(t, err)
	require.Contains(t, out, "ran=1")
	require.FileExists(t, fixture.DBPath)
	testutil.RequireNoFile(t, otherDB)
}

func TestApply_MissingTargets(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		fixture := testutil.NewFixture(t)

		_, err := testutil.RunCommandCapture(t, newRootCommand(nil), []string{
			"--db", "",
			"--migrations", fixture.MigrationsDir,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "no database file given")
	})

	t.Run("no migration directory", func(t *testing.T) {
		fixture := testutil.NewFixture(t)

		_, err := testutil.RunCommandCapture(t, newRootCommand(nil), []string{
			"--db", fixture.DBPath,
			"--migrations", "",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "no migration directory given")
	})
}
