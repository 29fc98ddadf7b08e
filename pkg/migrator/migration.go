package migrator

import (
	"io"
	"io/fs"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
)

type (
	// Migration represents a single schema migration: one SQL file that
	// advances the database schema by one version.
	//
	// Migrations are identified by filename. The numeric prefix makes
	// lexical order equal version order, and the full filename (including
	// the .sql extension) is the name recorded in the tracking table.
	Migration struct {
		// Name is the migration's filename, e.g. "0001_create_users.sql".
		// It is the unique identifier used for ordering and tracking.
		Name string

		// Version is the numeric prefix of the filename, e.g. "0001".
		Version string

		// SQL is the raw UTF-8 SQL text of the migration file. It is
		// executed verbatim as a single logical unit.
		SQL string
	}

	// Dir represents the ordered contents of a migrations directory.
	//
	// Migrations are sorted in lexical filename order, which the naming
	// contract guarantees is also version order.
	Dir struct {
		Migrations []*Migration
	}
)

// migrationName is the naming contract for migration files: a numeric
// version prefix, an underscore, and a description. Files that don't
// conform fail discovery rather than sorting unpredictably.
var migrationName = regexp.MustCompile(`^(\d+)_([A-Za-z0-9_-]+)\.sql$`)

// LoadDir loads all migration files from the provided filesystem and returns
// a Dir with migrations ordered by filename.
//
// The filesystem is typically os.DirFS over the configured migrations
// directory, but any fs.FS works (embedded filesystems, fstest.MapFS in
// tests). Ordering never depends on how the OS lists directory entries.
//
// Rules applied while walking:
//   - Subdirectories are skipped; migrations live flat in the directory.
//   - Files without a .sql extension are ignored.
//   - A .sql file that doesn't match NNNN_description.sql is an error.
//   - Two files sharing a numeric prefix are an error (ambiguous order).
//
// Example usage:
//
//	dir, err := migrator.LoadDir(os.DirFS("./db/migrations"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, m := range dir.Migrations {
//		fmt.Printf("%s (%d bytes)\n", m.Name, len(m.SQL))
//	}
//
// Returns an error if the directory cannot be read or any filename violates
// the naming contract.
func LoadDir(dir fs.FS) (*Dir, error) {
	d := &Dir{}
	versions := make(map[string]string)

	// NB: WalkDir always walks in lexical order.
	if err := fs.WalkDir(dir, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if path == "." {
				return nil
			}
			return fs.SkipDir
		}

		if filepath.Ext(path) != ".sql" {
			return nil
		}

		f, err := dir.Open(path)
		if err != nil {
			return errors.Wrapf(err, "failed to open: %s", path)
		}
		defer func() { _ = f.Close() }()

		m, err := Load(filepath.Base(path), f)
		if err != nil {
			return err
		}

		if prev, ok := versions[m.Version]; ok {
			return errors.Errorf("duplicate migration version %s: %s and %s", m.Version, prev, m.Name)
		}
		versions[m.Version] = m.Name

		d.Migrations = append(d.Migrations, m)
		return nil
	}); err != nil {
		return nil, err
	}

	return d, nil
}

// Load creates a Migration from the given filename and SQL content.
//
// The filename must follow the NNNN_description.sql contract; it supplies
// both the migration's identity and its version. The reader's content is
// kept verbatim and never interpreted here.
//
// Example usage:
//
//	m, err := migrator.Load("0001_create_users.sql", strings.NewReader(sql))
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(m.Version) // "0001"
func Load(name string, r io.Reader) (*Migration, error) {
	match := migrationName.FindStringSubmatch(name)
	if match == nil {
		return nil, errors.Errorf("invalid migration name: %s (want NNNN_description.sql)", name)
	}

	sql, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read migration: %s", name)
	}

	return &Migration{
		Name:    name,
		Version: match[1],
		SQL:     string(sql),
	}, nil
}
