// Package sqlite manages connections to the file-backed SQLite database that
// migrations run against.
//
// Two connection modes are provided: Open for the read-write connection the
// executor uses, and OpenReadOnly for inspection reads that must never create
// or modify the database file. Both return standard *sql.DB handles backed by
// the pure Go driver, so no cgo toolchain is required to build or test.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	// Pure Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

// Open opens the database file at path for reading and writing, creating the
// file if it does not exist.
//
// The connection is configured for single-writer migration work:
//
//   - DELETE journal mode keeps the database in a single file, so a
//     byte-for-byte copy of the file is a complete snapshot
//   - a max of one open connection keeps every statement of a run on the
//     same SQLite handle
//   - a busy timeout avoids immediate SQLITE_BUSY failures when another
//     process briefly holds a lock
//
// Example usage:
//
//	db, err := sqlite.Open("app.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", path)
	}

	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = DELETE",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "failed to configure database: %s", pragma)
		}
	}

	return db, nil
}

// OpenReadOnly opens the database file at path in read-only mode. The file is
// never created or modified through this connection; callers should confirm
// the file exists first, since the driver defers opening it until first use.
func OpenReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database read-only: %s", path)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to open database read-only: %s", path)
	}

	return db, nil
}
