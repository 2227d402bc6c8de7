// Package config loads ensemble settings from config files, .env files
// and ENSEMBLE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultDBPath        = "contacts.db"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultImportWorkers = 4
)

// EnvPrefix prefixes every environment variable, e.g. ENSEMBLE_DB_PATH.
const EnvPrefix = "ENSEMBLE"

// Config holds the application configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string

	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string

	// LogFormat is console or json.
	LogFormat string

	// ImportWorkers bounds parallel normalization during import.
	ImportWorkers int

	// ConfigFile is the config file that was read, if any.
	ConfigFile string
}

// Load reads configuration from all sources in order of precedence:
// 1. Environment variables (ENSEMBLE_*)
// 2. .env and .env.local in the working directory
// 3. Config file: configFile if set, else ~/.ensemble.yaml or ./.ensemble.yaml
// 4. Defaults
//
// Command-line flags are applied afterwards by the caller.
func Load(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", DefaultDBPath)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("import_workers", DefaultImportWorkers)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".ensemble")

		// A missing default config file is fine.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		DBPath:        v.GetString("db_path"),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
		ImportWorkers: v.GetInt("import_workers"),
		ConfigFile:    v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path must not be empty")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("config: log_format must be console or json, got %q", c.LogFormat)
	}
	if c.ImportWorkers < 1 {
		return fmt.Errorf("config: import_workers must be at least 1, got %d", c.ImportWorkers)
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment win.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
