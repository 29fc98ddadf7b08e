package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kettlebase/migrate/pkg/backup"
	"github.com/kettlebase/migrate/pkg/config"
	"github.com/kettlebase/migrate/pkg/executor"
	"github.com/kettlebase/migrate/pkg/sqlite"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// runApply is the root command action: discover migrations, compute the
// pending set, and apply it under snapshot protection.
//
// The flow is deliberately ordered so that a failed run can always put the
// database file back exactly as it was:
//
//  1. Discover migration files (lexical order, validated names).
//  2. Read the applied set through a read-only connection. A missing file or
//     missing tracking table means nothing is applied; neither is created.
//  3. If nothing is pending, report ran=0 and stop without touching the file.
//  4. Snapshot the file, but only when it already exists. For a fresh
//     database the pre-run state is "no file", so no snapshot is needed.
//  5. Execute pending migrations in order, stopping at the first failure.
//  6. On failure, restore the snapshot (or delete the freshly created file)
//     and report which migration failed.
func runApply(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	dbPath, err := resolveDB(cmd, cfg)
	if err != nil {
		return err
	}

	dir, err := resolveDir(cmd, cfg)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer

	slog.Info("Starting migration run", "db", dbPath, "migrations", dir)

	migrationDir, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	appliedSet, dbExists, err := loadApplied(ctx, dbPath)
	if err != nil {
		return err
	}

	pending := appliedSet.GetPending(migrationDir)
	if len(pending) == 0 {
		fmt.Fprintf(out, "ran=0\n")
		return nil
	}

	slog.Info("Computed pending migrations",
		"discovered", len(migrationDir.Migrations),
		"applied", appliedSet.Count(),
		"pending", len(pending),
	)

	var snap *backup.Backup
	if dbExists {
		snap, err = backup.Create(dbPath)
		if err != nil {
			return err
		}

		slog.Info("Created backup", "path", snap.Path)
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		if revertErr := revertDatabase(dbPath, snap, out); revertErr != nil {
			return revertErr
		}
		cleanupSnapshot(snap)
		return err
	}

	exec := executor.New(executor.Config{DB: db})
	results, execErr := exec.Execute(ctx, pending)
	_ = db.Close()

	failed := failedResult(results)
	if execErr != nil || failed != nil {
		if failed != nil {
			fmt.Fprintf(out, "migration %s failed: %v\n", failed.Name, failed.Error)
		}

		// The connection is closed, so the file is stable for the revert.
		if revertErr := revertDatabase(dbPath, snap, out); revertErr != nil {
			return revertErr
		}
		cleanupSnapshot(snap)

		if execErr != nil {
			return errors.Wrap(execErr, "failed to run migrations")
		}

		return errors.Wrapf(failed.Error, "migration %s failed", failed.Name)
	}

	cleanupSnapshot(snap)

	fmt.Fprintf(out, "ran=%d\n", executor.Applied(results))
	return nil
}

// failedResult returns the failed result from a run, or nil if every
// migration applied. Execution stops at the first failure, so at most the
// final result can be failed.
func failedResult(results []*executor.ExecutionResult) *executor.ExecutionResult {
	for _, result := range results {
		if result.Status == executor.StatusFailed {
			return result
		}
	}

	return nil
}

// revertDatabase puts the database file back in its pre-run state: restore
// the snapshot when one was taken, otherwise delete the file this run
// created. A failure here is the most severe outcome a run can have, so the
// snapshot is left on disk for manual recovery and its location reported.
func revertDatabase(dbPath string, snap *backup.Backup, out io.Writer) error {
	if snap == nil {
		if err := backup.DeleteFresh(dbPath); err != nil {
			slog.Error("Failed to remove freshly created database", "err", err, "db", dbPath)
			return err
		}

		fmt.Fprintln(out, "removed freshly created db")
		return nil
	}

	if err := snap.Restore(); err != nil {
		slog.Error("Failed to restore database from backup", "err", err, "backup", snap.Path)
		fmt.Fprintf(out, "restore failed: backup preserved at %s\n", snap.Path)
		return err
	}

	fmt.Fprintln(out, "restored db from backup")
	return nil
}

// cleanupSnapshot removes the snapshot once the database file is in a known
// good state. Failing to remove it doesn't change the outcome of the run, so
// it is logged rather than escalated.
func cleanupSnapshot(snap *backup.Backup) {
	if snap == nil {
		return
	}

	if err := snap.Remove(); err != nil {
		slog.Warn("Failed to remove backup file", "err", err, "backup", snap.Path)
	}
}
