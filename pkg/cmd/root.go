package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kettlebase/migrate/pkg/backup"
	"github.com/kettlebase/migrate/pkg/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Config     *config.Config
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates and executes the main migrate CLI application with the given
// version and command-line arguments. This function serves as the main entry
// point for all CLI operations.
//
// Invoking the application with no subcommand applies pending migrations,
// so the everyday invocation stays short:
//
//	# Apply pending migrations
//	migrate --db app.db --migrations db/migrations
//
//	# Inspect state without changing anything
//	migrate status --db app.db --migrations db/migrations
//
// Both flags can also come from MIGRATE_DB / MIGRATE_MIGRATIONS environment
// variables or from a migrate.yaml file in the working directory; explicit
// flags win.
//
// Exit status: 0 when the run succeeds (including runs with nothing to do),
// 1 for ordinary failures, and 2 when a snapshot or restore operation fails,
// since that means the database file may need manual attention.
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := rootCommand(p)

	p.Lifecycle.Append(fx.StartHook(func() {
		if err := app.Run(p.Ctx, p.Args); err != nil {
			slog.Error("Error running command", "err", err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(exitCode(err)))
			return
		}

		_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
	}))
}

// rootCommand assembles the top-level CLI command.
func rootCommand(p Params) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply SQL migrations to a SQLite database",
		Description: `migrate applies pending SQL migrations to a local SQLite database file.

Migration files live in a single directory and are named NNNN_description.sql
(e.g. 0001_init.sql). They are applied in lexical filename order, and each
applied file is recorded in the schema_migrations table inside the database
itself, so reruns only apply what is new.

Before applying to an existing database, the file is snapshotted; if any
migration fails, the snapshot is restored and the run reports the failing
file. A run is therefore all-or-nothing even though individual migrations
commit as they go.`,
		Version:  p.Version.Version,
		Flags:    []cli.Flag{dbFlag, migrationsFlag},
		Commands: p.Commands,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runApply(ctx, cmd, p.Config)
		},
	}
}

// exitCode maps a run error to the process exit status. Snapshot and restore
// failures get a distinct code so callers can tell "the migration was bad"
// apart from "the database file may be in trouble".
func exitCode(err error) int {
	var backupErr *backup.Error
	if errors.As(err, &backupErr) {
		return 2
	}

	return 1
}
