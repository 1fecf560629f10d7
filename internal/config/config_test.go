package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classquiz/internal/store"
)

var configKeys = []string{
	"ADDR", "DATA_DIR", "STORE_DRIVER", "SQLITE_PATH",
	"SESSION_SECRET", "SESSION_TTL", "OPENTDB_URL", "OPENTDB_TIMEOUT",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, store.DriverJSON, cfg.StoreDriver)
	assert.Equal(t, "quiz.db", cfg.SQLitePath)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Second, cfg.OpenTDBTimeout)
	assert.Equal(t, "https://opentdb.com/api.php", cfg.OpenTDBURL)

	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.SessionSecret)
	assert.Equal(t, filepath.Join(".", "users.json"), cfg.UsersPath())
	assert.Equal(t, filepath.Join(".", "quizzes.json"), cfg.QuizzesPath())
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":7000")

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ADDR=:6000\nSTORE_DRIVER=SQLite\nSESSION_TTL=90m\nDATA_DIR=/tmp/quiz\n"), 0o644))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, store.DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, filepath.Join("/tmp/quiz", "quizzes.json"), cfg.QuizzesPath())
}

func TestLoadRejectsBadDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "tomorrow")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{StoreDriver: "postgres", SessionTTL: time.Hour}
	assert.Error(t, cfg.Validate())

	cfg = &Config{StoreDriver: store.DriverJSON, SessionTTL: time.Hour, SessionSecret: "s"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "s", cfg.SessionSecret)
}
