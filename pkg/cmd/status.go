package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kettlebase/migrate/pkg/config"
	"github.com/kettlebase/migrate/pkg/migrator"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type statusParams struct {
	fx.In

	Config *config.Config
}

// status creates the status command for showing migration state.
//
// The status command is read-only: it never creates the database file, the
// tracking table, or anything else. It reports which migrations have been
// applied and which are still pending.
//
// Example usage:
//
//	# Show migration status
//	migrate status --db app.db --migrations db/migrations
func status(p statusParams) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show migration status",
		Description: `Display the current migration status for the database file.

The status command shows:
- Total number of migration files found
- Number of applied and pending migrations
- When each applied migration was recorded

This command never modifies anything. A database file that does not exist
yet is reported as such, with every migration pending.`,
		Flags: []cli.Flag{dbFlag, migrationsFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStatus(ctx, cmd, p)
		},
	}
}

func runStatus(ctx context.Context, cmd *cli.Command, p statusParams) error {
	dbPath, err := resolveDB(cmd, p.Config)
	if err != nil {
		return err
	}

	dir, err := resolveDir(cmd, p.Config)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer

	slog.Info("Checking migration status", "db", dbPath, "migrations", dir)

	migrationDir, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	set, dbExists, err := loadApplied(ctx, dbPath)
	if err != nil {
		return err
	}

	applied := set.GetApplied(migrationDir)
	pending := set.GetPending(migrationDir)

	showStatusHeader(out, dbPath, dir, dbExists)
	showStatusSummary(out, migrationDir.Migrations, applied, pending)
	showAppliedMigrations(out, applied, set)
	showPendingMigrations(out, pending)
	showRecommendations(out, pending)

	return nil
}

func showStatusHeader(out io.Writer, dbPath, dir string, dbExists bool) {
	fmt.Fprintln(out, "Migration status")
	fmt.Fprintf(out, "Database: %s\n", dbPath)
	fmt.Fprintf(out, "Migrations: %s\n", dir)

	if !dbExists {
		fmt.Fprintln(out, "Database file does not exist yet; it will be created on first run")
	}

	fmt.Fprintln(out)
}

func showStatusSummary(out io.Writer, migrations, applied, pending []*migrator.Migration) {
	fmt.Fprintf(out, "Total migrations: %d\n", len(migrations))
	fmt.Fprintf(out, "✅ Applied: %d\n", len(applied))
	fmt.Fprintf(out, "⏳ Pending: %d\n", len(pending))
	fmt.Fprintln(out)
}

func showAppliedMigrations(out io.Writer, applied []*migrator.Migration, set *migrator.RevisionSet) {
	if len(applied) == 0 {
		return
	}

	fmt.Fprintln(out, "Applied migrations:")
	for _, migration := range applied {
		revision := set.GetRevision(migration.Name)
		fmt.Fprintf(out, "  %s (applied %s)\n",
			migration.Name,
			revision.AppliedAt.Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintln(out)
}

func showPendingMigrations(out io.Writer, pending []*migrator.Migration) {
	if len(pending) == 0 {
		return
	}

	fmt.Fprintln(out, "Pending migrations:")
	for _, migration := range pending {
		fmt.Fprintf(out, "  %s\n", migration.Name)
	}
	fmt.Fprintln(out)
}

func showRecommendations(out io.Writer, pending []*migrator.Migration) {
	if len(pending) > 0 {
		fmt.Fprintln(out, "💡 Run 'migrate' to apply pending migrations")
	} else {
		fmt.Fprintln(out, "✅ All migrations are up to date")
	}
}
