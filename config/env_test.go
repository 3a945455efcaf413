package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFilesPrecedence(t *testing.T) {
	_ = Load()
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"app_port": 9000, "app_env": "staging", "cache_driver": "memory"}`), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte("APP_ENV=production\nADMIN_EMAILS=Owner@Example.com, help@example.com ,\n"), 0o600))
	t.Setenv("CACHE_DRIVER", "none")

	require.NoError(t, loadFromFiles(jsonPath, envPath))
	t.Cleanup(func() { _ = loadFromFiles(filepath.Join(dir, "missing.json"), filepath.Join(dir, "missing.env")) })

	assert.Equal(t, "9000", AppPort())
	assert.Equal(t, "production", AppEnv())
	assert.True(t, IsProduction())
	assert.Equal(t, "none", CacheDriver())
	assert.Equal(t, []string{"owner@example.com", "help@example.com"}, AdminEmails())
}

func TestLoadFromFilesMissingIsFine(t *testing.T) {
	_ = Load()
	dir := t.TempDir()
	require.NoError(t, loadFromFiles(filepath.Join(dir, "nope.json"), filepath.Join(dir, "nope.env")))
	assert.Equal(t, defaultAppPort, AppPort())
	assert.Equal(t, defaultSQLiteDSN, DatabaseDSN())
}

func TestLoadFromFilesBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	assert.Error(t, loadFromFiles(path, filepath.Join(t.TempDir(), ".env")))
}

func TestDatabaseDriverFallsBack(t *testing.T) {
	Set("DB_DRIVER", "oracle")
	t.Cleanup(func() { Set("DB_DRIVER", defaultDatabaseDriver) })
	assert.Equal(t, "sqlite", DatabaseDriver())

	Set("DB_DRIVER", "Postgres")
	assert.Equal(t, "postgres", DatabaseDriver())
	assert.Equal(t, defaultPostgresDSN, DatabaseDSN())
}

func TestDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"90s":   90 * time.Second,
		"2h":    2 * time.Hour,
		"45":    45 * time.Second,
		"-5s":   time.Minute,
		"later": time.Minute,
		"":      time.Minute,
	}
	for raw, want := range cases {
		Set("TEST_DURATION", raw)
		assert.Equal(t, want, Duration("TEST_DURATION", time.Minute), "raw %q", raw)
	}
}

func TestInt64(t *testing.T) {
	Set("TEST_INT", "2048")
	assert.EqualValues(t, 2048, Int64("TEST_INT", 1))

	Set("TEST_INT", "0")
	assert.EqualValues(t, 1, Int64("TEST_INT", 1))

	Set("TEST_INT", "many")
	assert.EqualValues(t, 1, Int64("TEST_INT", 1))
}

func TestList(t *testing.T) {
	Set("TEST_LIST", " a ,, b,c ")
	assert.Equal(t, []string{"a", "b", "c"}, List("TEST_LIST"))

	Set("TEST_LIST", "")
	assert.Empty(t, List("TEST_LIST"))
}

func TestAppURLTrimsSlash(t *testing.T) {
	Set("APP_URL", "https://rainbowartistery.in/")
	t.Cleanup(func() { Set("APP_URL", defaultAppURL) })
	assert.Equal(t, "https://rainbowartistery.in", AppURL())
	assert.Equal(t, "https://rainbowartistery.in/storage", StorageURL())
}
