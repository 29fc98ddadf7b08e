// Package migrator provides discovery and tracking of SQL schema migrations
// for a file-backed SQLite database.
//
// This package handles the read side of the migration lifecycle: finding
// migration files, validating their names, and working out which of them have
// already been applied. Executing the pending set is the executor package's
// job; nothing in this package writes to the database.
//
// Key behaviors:
//   - Migration files are discovered in lexical filename order, which the
//     NNNN_description.sql naming contract makes equal to version order
//   - Names that violate the contract fail discovery immediately rather than
//     sorting unpredictably at apply time
//   - The applied set is read from the schema_migrations tracking table; a
//     missing table (or missing database file) simply means nothing has been
//     applied yet
//   - Pending migrations are computed as discovered minus applied, preserving
//     discovery order
//
// Example usage:
//
//	dir, err := migrator.LoadDir(os.DirFS("db/migrations"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	set, err := migrator.LoadRevisions(ctx, db)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, m := range set.GetPending(dir) {
//		fmt.Printf("pending: %s\n", m.Name)
//	}
package migrator
