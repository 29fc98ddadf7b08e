// Package cmd provides CLI commands for the migrate tool.
//
// This package implements the command-line interface for migrate, wiring
// migration discovery, the applied-set tracker, snapshot protection, and the
// executor into user-facing commands.
//
// # Available Commands
//
// The cmd package currently provides:
//   - (root): apply pending migrations to the database file
//   - status: show applied and pending migrations without changing anything
//   - create: generate the next numbered migration file
//
// # Command Structure
//
// Each command is implemented as a separate function that returns a
// *cli.Command, following the urfave/cli/v3 pattern, and receives its
// dependencies through an fx parameter struct. Commands are designed to be
// composable and testable, with proper error handling and comprehensive
// help text.
//
// # Global Options
//
// All commands resolve their targets the same way:
//   - --db: path to the SQLite database file (MIGRATE_DB)
//   - --migrations: directory containing migration files (MIGRATE_MIGRATIONS)
//   - values omitted from both fall back to migrate.yaml in the working
//     directory
//
// # Example Usage
//
// Commands are registered in the main application and can be invoked
// from the command line:
//
//	migrate --db app.db --migrations db/migrations        # Apply migrations
//	migrate status --db app.db --migrations db/migrations # Show status
//	migrate create --migrations db/migrations add_users   # New migration file
//
// # Output Contract
//
// The root command prints a single machine-readable line on success:
//
//	ran=<N>
//
// where N is the number of migrations applied this run (0 when there was
// nothing to do). On failure it names the failing migration and confirms how
// the database file was put back ("restored db from backup" for a
// pre-existing file, "removed freshly created db" otherwise) before exiting
// nonzero. Diagnostic logging goes to stderr via slog and never mixes with
// this contract output.
package cmd
