// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Search  SearchConfig
	Actor   ActorConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// DataPath is the base directory for the catalog store, the note search
	// index, and the reading-session database.
	DataPath string
}

// SearchConfig holds external book-search configuration.
type SearchConfig struct {
	// APIKey for the Google Books API. Optional; anonymous requests work
	// with lower quotas.
	APIKey string
	// BaseURL overrides the search endpoint. Used in tests.
	BaseURL string
	// Timeout for search HTTP requests.
	Timeout time.Duration
}

// ActorConfig identifies the single local user.
type ActorConfig struct {
	DisplayName string
}

// Defaults.
const (
	defaultEnvironment = "development"
	defaultLogLevel    = "info"
	defaultActorName   = "Grace"
	defaultTimeout     = 30 * time.Second
)

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	searchAPIKey := flag.String("search-api-key", "", "Google Books API key")
	actorName := flag.String("actor-name", "", "Display name of the local user")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if present (lowest precedence after defaults).
	if err := loadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: resolve(*env, "READSHELF_ENV", defaultEnvironment),
		},
		Logger: LoggerConfig{
			Level: resolve(*logLevel, "READSHELF_LOG_LEVEL", defaultLogLevel),
		},
		Storage: StorageConfig{
			DataPath: resolve(*dataPath, "READSHELF_DATA_PATH", defaultDataPath()),
		},
		Search: SearchConfig{
			APIKey:  resolve(*searchAPIKey, "GOOGLE_BOOKS_API_KEY", ""),
			BaseURL: os.Getenv("GOOGLE_BOOKS_BASE_URL"),
			Timeout: defaultTimeout,
		},
		Actor: ActorConfig{
			DisplayName: resolve(*actorName, "READSHELF_ACTOR_NAME", defaultActorName),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment %q", c.App.Environment)
	}

	if c.Storage.DataPath == "" {
		return fmt.Errorf("data path must not be empty")
	}

	return nil
}

// resolve returns the first non-empty value of flag, env var, fallback.
func resolve(flagValue, envKey, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}

// defaultDataPath returns the default storage location under the user's home.
func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./readshelf-data"
	}
	return filepath.Join(home, ".readshelf")
}

// loadEnvFile reads KEY=VALUE pairs from a file into the process environment.
// Existing environment variables are not overwritten.
func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}
