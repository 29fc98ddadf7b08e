package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kettlebase/migrate/pkg/consts"
	"github.com/stretchr/testify/require"
)

// Fixture represents an isolated test environment with a migration directory
// and a place for the database file. The database file itself is not created
// until something writes to it, mirroring a fresh project.
type Fixture struct {
	// Dir is the root temp directory for this test
	Dir string

	// DBPath is where the database file lives (or will live) under Dir
	DBPath string

	// MigrationsDir is the migration directory under Dir
	MigrationsDir string

	t *testing.T
}

// MigrationFile represents a test migration
type MigrationFile struct {
	Name string
	SQL  string
}

// NewFixture creates an isolated temp directory with an empty migration
// directory inside it.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	tmpDir := t.TempDir()

	fixture := &Fixture{
		Dir:           tmpDir,
		DBPath:        filepath.Join(tmpDir, "app.db"),
		MigrationsDir: filepath.Join(tmpDir, "migrations"),
		t:             t,
	}

	err := os.MkdirAll(fixture.MigrationsDir, consts.ModeDir)
	require.NoError(t, err, "Failed to create migrations directory")

	return fixture
}

// WithMigrations adds migration files to the fixture's migration directory
func (f *Fixture) WithMigrations(migrations ...MigrationFile) *Fixture {
	f.t.Helper()

	for _, migration := range migrations {
		path := filepath.Join(f.MigrationsDir, migration.Name)
		err := os.WriteFile(path, []byte(migration.SQL), consts.ModeFile)
		require.NoError(f.t, err, "Failed to write migration file: %s", migration.Name)
	}

	return f
}

// BackupPath returns where a snapshot of the fixture's database would be
// written during a run.
func (f *Fixture) BackupPath() string {
	return f.DBPath + ".bak"
}

// ReadDB returns the raw bytes of the fixture's database file.
func (f *Fixture) ReadDB() []byte {
	f.t.Helper()

	content, err := os.ReadFile(f.DBPath)
	require.NoError(f.t, err, "Failed to read database file")

	return content
}
