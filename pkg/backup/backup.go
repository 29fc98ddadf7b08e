// Package backup creates and restores byte-for-byte snapshots of the
// database file, the safety net that makes a migration run all-or-nothing.
//
// A snapshot is taken before any pending migration touches an existing
// database. If the run fails, restoring the snapshot puts the file back
// exactly as it was; if the run succeeds, the snapshot is removed. Failures
// in this package are more severe than ordinary migration failures, since
// they mean the safety net itself is compromised, so every operation reports
// a typed *Error that callers can detect and escalate.
package backup

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kettlebase/migrate/pkg/consts"
)

type (
	// Backup is a snapshot of a database file taken before a migration run.
	Backup struct {
		// Source is the database file the snapshot was taken from
		Source string

		// Path is the location of the snapshot file
		Path string

		// CreatedAt is when the snapshot was written
		CreatedAt time.Time
	}

	// Error reports a failed snapshot operation. It wraps the underlying
	// cause and records which operation failed and on which file.
	Error struct {
		// Op is the operation that failed: "create", "restore", or "remove"
		Op string

		// Path is the snapshot file involved
		Path string

		// Err is the underlying cause
		Err error
	}
)

func (e *Error) Error() string {
	return fmt.Sprintf("backup %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Create snapshots the database file at source into a sibling file with a
// .bak suffix, e.g. app.db becomes app.db.bak. The source must exist; a run
// against a database file that does not exist yet needs no snapshot, since
// deleting the freshly created file restores the original state.
//
// Example usage:
//
//	b, err := backup.Create("app.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Remove()
func Create(source string) (*Backup, error) {
	path := source + ".bak"

	if err := copyFile(source, path); err != nil {
		return nil, &Error{Op: "create", Path: path, Err: err}
	}

	return &Backup{
		Source:    source,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Restore copies the snapshot back over the source file, discarding
// everything written since the snapshot was taken. The snapshot file itself
// is left in place; callers remove it separately once the restore is known
// good.
func (b *Backup) Restore() error {
	if err := copyFile(b.Path, b.Source); err != nil {
		return &Error{Op: "restore", Path: b.Path, Err: err}
	}

	return nil
}

// Remove deletes the snapshot file. Removing a snapshot that is already gone
// is not an error, so Remove is safe to defer alongside an explicit call on
// the failure path.
func (b *Backup) Remove() error {
	if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
		return &Error{Op: "remove", Path: b.Path, Err: err}
	}

	return nil
}

// DeleteFresh removes a database file created during a failed run against a
// previously nonexistent database. It is the restore equivalent for that
// case: afterwards the pre-run state, no file at all, holds again.
func DeleteFresh(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &Error{Op: "restore", Path: path, Err: err}
	}

	return nil
}

// copyFile copies src to dst, truncating dst if it exists, and fsyncs the
// result so the copy is durable before anything else happens to src.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, consts.ModeFile)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
