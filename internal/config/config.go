// Package config resolves runtime settings from a .env file and the
// environment. Command-line flags are layered on top by the binaries.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"classquiz/internal/opentdb"
	"classquiz/internal/store"
	"classquiz/internal/store/jsonfile"
)

const devSessionSecret = "dev-session-secret-change-me"

type Config struct {
	Addr           string
	DataDir        string
	StoreDriver    string
	SQLitePath     string
	SessionSecret  string
	SessionTTL     time.Duration
	OpenTDBURL     string
	OpenTDBTimeout time.Duration
}

// Load reads envFiles (".env" when none are given) and then the process
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil {
			glog.V(2).Infof("no env file %s, using process environment", file)
		}
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, errors.Wrap(err, "parse SESSION_TTL")
	}
	timeout, err := time.ParseDuration(getEnv("OPENTDB_TIMEOUT", "10s"))
	if err != nil {
		return nil, errors.Wrap(err, "parse OPENTDB_TIMEOUT")
	}

	cfg := &Config{
		Addr:           getEnv("ADDR", ":5000"),
		DataDir:        getEnv("DATA_DIR", "."),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", store.DriverJSON)),
		SQLitePath:     getEnv("SQLITE_PATH", "quiz.db"),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionTTL:     sessionTTL,
		OpenTDBURL:     getEnv("OPENTDB_URL", opentdb.DefaultBaseURL),
		OpenTDBTimeout: timeout,
	}
	return cfg, nil
}

// Validate fills the development session secret when none is set and
// rejects unknown store drivers.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case store.DriverJSON, store.DriverSQLite:
	default:
		return errors.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.SessionSecret == "" {
		glog.Warningf("SESSION_SECRET is not set, using an insecure development secret")
		c.SessionSecret = devSessionSecret
	}
	return nil
}

func (c *Config) UsersPath() string {
	return filepath.Join(c.DataDir, jsonfile.UsersFileName)
}

func (c *Config) QuizzesPath() string {
	return filepath.Join(c.DataDir, jsonfile.QuizzesFileName)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
