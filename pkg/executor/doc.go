// Package executor provides migration execution against a SQLite database.
//
// The executor applies pending migrations in order, one transaction per
// migration, and records each successful migration in the schema_migrations
// tracking table as part of the same transaction.
//
// # Core Components
//
//   - Executor: Main execution engine for applying migrations
//   - Config: Configuration options for executor creation
//   - ExecutionResult: Result of a single migration execution
//   - ExecutionStatus: Status enumeration for migration outcomes
//
// # Usage Example
//
//	// Open the database and create an executor
//	db, err := sqlite.Open("app.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	exec := executor.New(executor.Config{DB: db})
//
//	// Execute pending migrations
//	results, err := exec.Execute(ctx, pending)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Process results
//	for _, result := range results {
//		switch result.Status {
//		case executor.StatusApplied:
//			fmt.Printf("✓ %s completed in %v\n", result.Name, result.ExecutionTime)
//		case executor.StatusFailed:
//			fmt.Printf("✗ %s failed: %v\n", result.Name, result.Error)
//		}
//	}
//
// # Transactional Guarantees
//
// A migration's SQL and its tracking row commit together. If any statement
// fails, the transaction rolls back, the tracking table gains no row for that
// migration, and execution stops. The executor never reverts migrations
// committed earlier in the run; whole-run atomicity is the responsibility of
// the caller, which snapshots the database file before executing and restores
// it on failure.
//
// # Tracking Table
//
// The executor creates the tracking table on first use:
//
//	CREATE TABLE IF NOT EXISTS schema_migrations (
//		name TEXT PRIMARY KEY,
//		applied_at TEXT NOT NULL
//	)
//
// Names are full migration filenames (e.g. "0001_init.sql") and applied_at is
// an RFC 3339 UTC timestamp. Rows are only ever inserted; nothing in normal
// operation deletes from this table.
package executor
