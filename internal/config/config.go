// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mergington/activities/internal/logging"
	"github.com/mergington/activities/internal/registry"
)

// Config holds the service settings.
type Config struct {
	Port      string
	StaticDir string
	// SeedFile is a YAML seed document. Empty selects the built-in catalogue.
	SeedFile  string
	Log       logging.Config
	Policy    registry.Policy
}

// Load reads the given .env files (or ./.env when none are given) into the
// process environment and then builds a Config from it. Missing .env files
// are not an error; variables may come from elsewhere.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, falling back to
// local-development defaults.
func FromEnv() (Config, error) {
	enforce, err := getBool("ENFORCE_CAPACITY", false)
	if err != nil {
		return Config{}, err
	}
	rejectDup, err := getBool("REJECT_DUPLICATES", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		StaticDir: getEnv("STATIC_DIR", "./static"),
		SeedFile:  os.Getenv("SEED_FILE"),
		Log: logging.Config{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Policy: registry.Policy{
			EnforceCapacity:  enforce,
			RejectDuplicates: rejectDup,
		},
	}
	return cfg, nil
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	return b, nil
}
