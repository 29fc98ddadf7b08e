package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kettlebase/migrate/pkg/config"
	"github.com/kettlebase/migrate/pkg/consts"
	"github.com/kettlebase/migrate/pkg/migrator"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type createParams struct {
	fx.In

	Config *config.Config
}

// create creates the command for generating a new migration file.
//
// The generated file is numbered one past the highest existing migration and
// named after the slugified description, so it sorts last and applies after
// everything already in the directory.
//
// Example usage:
//
//	# Create db/migrations/0003_add_users_index.sql
//	migrate create --migrations db/migrations "add users index"
func create(p createParams) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Aliases:   []string{"new"},
		Usage:     "Create a new migration file",
		ArgsUsage: "<description>",
		Description: `Create the next migration file in the migration directory.

The new file is named NNNN_description.sql where NNNN is one past the highest
number already present (starting at 0001 for an empty directory) and the
description is lowercased with spaces turned into underscores. The directory
is created if it does not exist.`,
		Flags: []cli.Flag{migrationsFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runCreate(ctx, cmd, p)
		},
	}
}

func runCreate(_ context.Context, cmd *cli.Command, p createParams) error {
	dir, err := resolveDir(cmd, p.Config)
	if err != nil {
		return err
	}

	description := slugify(strings.Join(cmd.Args().Slice(), " "))
	if description == "" {
		return errors.New("a description is required, e.g. migrate create add_users")
	}

	out := cmd.Root().Writer

	if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
		return errors.Wrapf(err, "failed to create migration directory: %s", dir)
	}

	migrationDir, err := migrator.LoadDir(os.DirFS(dir))
	if err != nil {
		return errors.Wrap(err, "failed to load migrations")
	}

	name := fmt.Sprintf("%s_%s.sql", nextVersion(migrationDir.Migrations), description)
	path := filepath.Join(dir, name)

	content := fmt.Sprintf("-- %s\n-- Forward-only DDL; the whole file runs in a single transaction.\n", name)
	if err := os.WriteFile(path, []byte(content), consts.ModeFile); err != nil {
		return errors.Wrapf(err, "failed to write migration file: %s", path)
	}

	slog.Info("Created migration file", "path", path)
	fmt.Fprintf(out, "created %s\n", path)

	return nil
}

// nextVersion computes the next migration number. It keeps the widest prefix
// seen so far (minimum four digits) so the new file sorts after existing
// ones both numerically and lexically.
func nextVersion(migrations []*migrator.Migration) string {
	width := 4
	highest := 0

	for _, migration := range migrations {
		if len(migration.Version) > width {
			width = len(migration.Version)
		}

		if n, err := strconv.Atoi(migration.Version); err == nil && n > highest {
			highest = n
		}
	}

	return fmt.Sprintf("%0*d", width, highest+1)
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9_-]+`)

// slugify converts a free-form description into the description portion of a
// migration filename.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return slugInvalid.ReplaceAllString(s, "")
}
