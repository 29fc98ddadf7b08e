package cmd

import (
	"os"
	"testing"

	"github.com/kettlebase/migrate/pkg/backup"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	t.Run("plain errors", func(t *testing.T) {
		require.Equal(t, 1, exitCode(errors.New("boom")))
		require.Equal(t, 1, exitCode(errors.Wrap(os.ErrNotExist, "context")))
	})

	t.Run("backup errors", func(t *testing.T) {
		backupErr := &backup.Error{Op: "restore", Path: "app.db.bak", Err: os.ErrPermission}

		require.Equal(t, 2, exitCode(backupErr))
		require.Equal(t, 2, exitCode(errors.Wrap(backupErr, "while reverting")))
	})
}

func TestRootCommand(t *testing.T) {
	command := newRootCommand(nil)

	require.Equal(t, "migrate", command.Name)
	require.NotNil(t, command.Action, "running with no subcommand applies migrations")

	names := make([]string, 0, len(command.Flags))
	for _, flag := range command.Flags {
		names = append(names, flag.Names()[0])
	}
	require.Contains(t, names, "db")
	require.Contains(t, names, "migrations")
}
