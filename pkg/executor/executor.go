package executor

import (
	"context"
	"database/sql"
	"time"

	"github.com/kettlebase/migrate/pkg/migrator"
	"github.com/pkg/errors"
)

type (
	// DB defines the database operations required by the migration executor.
	// *sql.DB satisfies it.
	DB interface {
		BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	}

	// Executor applies pending migrations to a SQLite database.
	//
	// Each migration runs inside its own transaction together with the insert
	// of its tracking row, so a migration is either fully applied and
	// recorded, or it leaves no trace at all. Execution is strictly ordered
	// and stops at the first failure; earlier migrations from the same run
	// stay committed and it is the caller's job to revert them, typically by
	// restoring a pre-run snapshot of the database file.
	//
	// Example usage:
	//
	//	exec := executor.New(executor.Config{DB: db})
	//
	//	results, err := exec.Execute(ctx, pending)
	//	if err != nil {
	//		log.Fatal(err)
	//	}
	//
	//	for _, result := range results {
	//		fmt.Printf("Migration %s: %s\n", result.Name, result.Status)
	//	}
	Executor struct {
		db DB
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// DB is the read-write database connection migrations run against
		DB DB
	}

	// ExecutionResult contains the result of executing a single migration.
	ExecutionResult struct {
		// Name is the migration that was executed
		Name string

		// Status indicates the outcome of the migration execution
		Status ExecutionStatus

		// Error contains any error that occurred during execution
		Error error

		// ExecutionTime records how long the migration took to execute
		ExecutionTime time.Duration
	}

	// ExecutionStatus represents the outcome of a migration execution.
	ExecutionStatus string
)

const (
	// StatusApplied indicates the migration was executed and recorded
	StatusApplied ExecutionStatus = "applied"

	// StatusFailed indicates the migration execution failed and was rolled back
	StatusFailed ExecutionStatus = "failed"
)

// New creates a new migration executor with the provided configuration.
//
// Example usage:
//
//	db, err := sqlite.Open("app.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	exec := executor.New(executor.Config{DB: db})
func New(config Config) *Executor {
	return &Executor{db: config.DB}
}

// Execute applies migrations in the order given, one transaction per
// migration.
//
// The tracking table is created first if it does not exist. Each migration's
// SQL and its schema_migrations row are committed together; on failure the
// transaction rolls back and execution stops, so the returned results never
// contain a failed migration followed by further attempts.
//
// An error return means the run could not start at all (for example the
// tracking table could not be created). Per-migration failures are reported
// through the result's Status and Error fields instead.
//
// Example usage:
//
//	results, err := exec.Execute(ctx, pending)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, result := range results {
//		switch result.Status {
//		case executor.StatusApplied:
//			fmt.Printf("✓ %s completed in %v\n", result.Name, result.ExecutionTime)
//		case executor.StatusFailed:
//			fmt.Printf("✗ %s failed: %v\n", result.Name, result.Error)
//		}
//	}
func (e *Executor) Execute(ctx context.Context, migrations []*migrator.Migration) ([]*ExecutionResult, error) {
	if err := e.ensureTracking(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to ensure tracking table")
	}

	results := make([]*ExecutionResult, 0, len(migrations))

	for _, migration := range migrations {
		result := e.executeMigration(ctx, migration)
		results = append(results, result)

		// Stop execution on first failure
		if result.Status == StatusFailed {
			break
		}
	}

	return results, nil
}

// Applied returns the number of successfully applied migrations in results.
// For a clean run this is the full count; for a failed run it is everything
// before the failure.
func Applied(results []*ExecutionResult) int {
	applied := 0
	for _, result := range results {
		if result.Status == StatusApplied {
			applied++
		}
	}

	return applied
}

// ensureTracking creates the schema_migrations table if it doesn't exist.
func (e *Executor) ensureTracking(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`

	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "failed to create schema_migrations table")
	}

	return nil
}

// executeMigration applies a single migration and returns the result.
func (e *Executor) executeMigration(ctx context.Context, migration *migrator.Migration) *ExecutionResult {
	startTime := time.Now()

	result := &ExecutionResult{
		Name:   migration.Name,
		Status: StatusApplied,
	}

	if err := e.applyMigration(ctx, migration); err != nil {
		result.Status = StatusFailed
		result.Error = err
	}

	result.ExecutionTime = time.Since(startTime)

	return result
}

// applyMigration runs the migration SQL and records its revision in a single
// transaction.
func (e *Executor) applyMigration(ctx context.Context, migration *migrator.Migration) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to begin transaction for %s", migration.Name)
	}

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "failed to execute %s", migration.Name)
	}

	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)", migration.Name, appliedAt); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "failed to record revision for %s", migration.Name)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit %s", migration.Name)
	}

	return nil
}
