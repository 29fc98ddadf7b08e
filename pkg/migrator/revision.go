package migrator

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

type (
	// Querier is the read-only database surface required for loading
	// revisions. *sql.DB, *sql.Conn, and *sql.Tx all satisfy it.
	Querier interface {
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	}

	// Revision is the durable record of a single applied migration, one row
	// of the schema_migrations tracking table.
	//
	// The applied set only grows during normal operation: rows are written
	// when a migration succeeds and are only ever removed by a whole-file
	// restore reverting a failed run.
	Revision struct {
		// Name is the migration filename this revision records,
		// e.g. "0001_create_users.sql". Primary key of the tracking table.
		Name string

		// AppliedAt is the UTC time the migration was committed.
		AppliedAt time.Time
	}

	// RevisionSet is the collection of applied revisions with convenient
	// query methods for computing migration status.
	RevisionSet struct {
		// revisions contains all revisions indexed by name for fast lookup
		revisions map[string]*Revision

		// orderedNames preserves the order revisions were read from the database
		orderedNames []string
	}
)

// NewRevisionSet creates a RevisionSet from a slice of revisions.
//
// Example usage:
//
//	set := migrator.NewRevisionSet([]*migrator.Revision{
//		{Name: "0001_init.sql", AppliedAt: time.Now().UTC()},
//	})
//
//	if set.IsApplied(migration) {
//		fmt.Printf("%s already applied\n", migration.Name)
//	}
func NewRevisionSet(revisions []*Revision) *RevisionSet {
	revisionMap := make(map[string]*Revision, len(revisions))
	orderedNames := make([]string, 0, len(revisions))

	for _, revision := range revisions {
		revisionMap[revision.Name] = revision
		orderedNames = append(orderedNames, revision.Name)
	}

	return &RevisionSet{
		revisions:    revisionMap,
		orderedNames: orderedNames,
	}
}

// LoadRevisions reads the full applied set from the tracking table.
//
// The read is tolerant of a database that has never been migrated: when the
// schema_migrations table does not exist yet, an empty set is returned and
// no DDL is issued. Creating the table is the executor's job, and only once
// a run has pending work.
//
// Example usage:
//
//	set, err := migrator.LoadRevisions(ctx, db)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pending := set.GetPending(dir)
//	fmt.Printf("%d pending migrations\n", len(pending))
func LoadRevisions(ctx context.Context, db Querier) (*RevisionSet, error) {
	exists, err := trackingExists(ctx, db)
	if err != nil {
		return nil, err
	}
	if !exists {
		return NewRevisionSet(nil), nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT name, applied_at
		FROM schema_migrations
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load revisions")
	}
	defer func() { _ = rows.Close() }()

	var revisions []*Revision
	for rows.Next() {
		var name, appliedAt string
		if err := rows.Scan(&name, &appliedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan revision row")
		}

		ts, err := time.Parse(time.RFC3339, appliedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid applied_at for %s", name)
		}

		revisions = append(revisions, &Revision{Name: name, AppliedAt: ts})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate revision rows")
	}

	return NewRevisionSet(revisions), nil
}

// trackingExists reports whether the schema_migrations table has been
// created in this database.
func trackingExists(ctx context.Context, db Querier) (bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'")
	if err != nil {
		return false, errors.Wrap(err, "failed to check for tracking table")
	}
	defer func() { _ = rows.Close() }()

	exists := rows.Next()
	if err := rows.Err(); err != nil {
		return false, errors.Wrap(err, "failed to check for tracking table")
	}

	return exists, nil
}

// IsApplied returns true if the migration has a revision in the set.
func (rs *RevisionSet) IsApplied(migration *Migration) bool {
	_, exists := rs.revisions[migration.Name]
	return exists
}

// IsPending returns true if the migration has no revision in the set.
// Equivalent to !IsApplied(migration).
func (rs *RevisionSet) IsPending(migration *Migration) bool {
	return !rs.IsApplied(migration)
}

// GetRevision returns the revision record for a migration name, or nil if
// the migration has not been applied.
func (rs *RevisionSet) GetRevision(name string) *Revision {
	return rs.revisions[name]
}

// GetPending returns the migrations from dir that have not been applied,
// preserving discovery order.
//
// This is the discovered-minus-applied computation: the returned slice is
// exactly the work a run still has to do, in the order it must be done.
//
// Example usage:
//
//	pending := set.GetPending(dir)
//	for _, m := range pending {
//		fmt.Printf("pending: %s\n", m.Name)
//	}
func (rs *RevisionSet) GetPending(dir *Dir) []*Migration {
	if dir == nil {
		return make([]*Migration, 0)
	}

	pending := make([]*Migration, 0)
	for _, migration := range dir.Migrations {
		if rs.IsPending(migration) {
			pending = append(pending, migration)
		}
	}

	return pending
}

// GetApplied returns the migrations from dir that have been applied,
// preserving discovery order.
func (rs *RevisionSet) GetApplied(dir *Dir) []*Migration {
	if dir == nil {
		return make([]*Migration, 0)
	}

	applied := make([]*Migration, 0)
	for _, migration := range dir.Migrations {
		if rs.IsApplied(migration) {
			applied = append(applied, migration)
		}
	}

	return applied
}

// Names returns the applied migration names in the order they were read
// from the tracking table.
func (rs *RevisionSet) Names() []string {
	names := make([]string, len(rs.orderedNames))
	copy(names, rs.orderedNames)
	return names
}

// Count returns the number of revisions in the set.
func (rs *RevisionSet) Count() int {
	return len(rs.revisions)
}
