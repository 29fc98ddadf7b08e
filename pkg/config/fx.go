package config

import (
	"os"

	"github.com/kettlebase/migrate/pkg/consts"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	// Function attempts to load the configuration from migrate.yaml if it exists.
	// Returns nil if the file doesn't exist, allowing runs to be fully specified
	// through flags and environment variables instead.
	func() (*Config, error) {
		// Check if migrate.yaml exists
		if _, err := os.Stat(consts.ConfigFile); os.IsNotExist(err) {
			// Return nil config for runs that don't need it
			return nil, nil
		}

		// Load and return the config
		return LoadConfigFile(consts.ConfigFile)
	},
))
