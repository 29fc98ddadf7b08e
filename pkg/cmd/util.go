package cmd

import (
	"context"
	"os"

	"github.com/kettlebase/migrate/pkg/config"
	"github.com/kettlebase/migrate/pkg/migrator"
	"github.com/kettlebase/migrate/pkg/sqlite"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

var (
	dbFlag = &cli.StringFlag{
		Name:    "db",
		Usage:   "Path to the SQLite database file",
		Sources: cli.EnvVars("MIGRATE_DB"),
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}

	migrationsFlag = &cli.StringFlag{
		Name:    "migrations",
		Usage:   "Directory containing migration files",
		Sources: cli.EnvVars("MIGRATE_MIGRATIONS"),
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}
)

// resolveDB returns the database file path for this run. Flags and
// environment variables win; the optional config file fills the gap.
func resolveDB(cmd *cli.Command, cfg *config.Config) (string, error) {
	path := cmd.String("db")
	if path == "" && cfg != nil {
		path = cfg.DB
	}

	if path == "" {
		return "", errors.New("no database file given: pass --db or set db in migrate.yaml")
	}

	return path, nil
}

// resolveDir returns the migration directory for this run, with the same
// precedence as resolveDB.
func resolveDir(cmd *cli.Command, cfg *config.Config) (string, error) {
	dir := cmd.String("migrations")
	if dir == "" && cfg != nil {
		dir = cfg.Dir
	}

	if dir == "" {
		return "", errors.New("no migration directory given: pass --migrations or set dir in migrate.yaml")
	}

	return dir, nil
}

// loadMigrations discovers the migration files under dir. A missing
// directory is a configuration problem and reported as such, before any
// file inside it is touched.
func loadMigrations(dir string) (*migrator.Dir, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("migration directory does not exist: %s", dir)
		}

		return nil, errors.Wrapf(err, "failed to read migration directory: %s", dir)
	}

	d, err := migrator.LoadDir(os.DirFS(dir))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load migrations")
	}

	return d, nil
}

// loadApplied reads the applied set from the database file without creating
// or modifying it. A missing file simply means nothing has been applied yet;
// the second return value reports whether the file exists.
func loadApplied(ctx context.Context, dbPath string) (*migrator.RevisionSet, bool, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return migrator.NewRevisionSet(nil), false, nil
		}

		return nil, false, errors.Wrapf(err, "failed to stat database: %s", dbPath)
	}

	db, err := sqlite.OpenReadOnly(dbPath)
	if err != nil {
		return nil, true, err
	}
	defer func() { _ = db.Close() }()

	set, err := migrator.LoadRevisions(ctx, db)
	if err != nil {
		return nil, true, errors.Wrap(err, "failed to load applied migrations")
	}

	return set, true, nil
}
