package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the project configuration for migration runs.
//
// Every field is optional; values given on the command line or through
// environment variables take precedence over the file.
type Config struct {
	// DB specifies the path to the SQLite database file migrations run against
	DB string `yaml:"db"`

	// Dir specifies the directory where migration files are stored
	Dir string `yaml:"dir"`
}

// LoadConfig parses a project configuration from the provided io.Reader.
//
// The function expects YAML-formatted configuration data naming the database
// file and the migration directory. It uses a streaming YAML decoder to
// handle configuration files efficiently.
//
// Example:
//
//	import (
//		"strings"
//		"github.com/kettlebase/migrate/pkg/config"
//	)
//
//	yamlData := `
//	db: app.db
//	dir: db/migrations
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Printf("Database: %s\n", cfg.DB)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
//
// Example:
//
//	cfg, err := config.LoadConfigFile("migrate.yaml")
//	if err != nil {
//		log.Fatal("Failed to load config:", err)
//	}
//
//	fmt.Printf("Database: %s, Migration dir: %s\n", cfg.DB, cfg.Dir)
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}
