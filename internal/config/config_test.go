package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Equal(t, ":8501", cfg.ListenAddr())
	assert.Equal(t, "users.yaml", cfg.Files.Users)
	assert.Equal(t, "tickcom_portal", cfg.Session.CookieName)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionMaxAge())
	assert.False(t, cfg.Auth.LegacyPlaintext)
	assert.False(t, cfg.Auth.StrictExpiry)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
	assert.True(t, cfg.Roster.Watch)
	assert.Zero(t, cfg.Roster.ReloadInterval)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ADMIN_USERS", "root,ops")
	t.Setenv("PORTAL_COOKIE_KEY", "s3cret")
	t.Setenv("PORTAL_PORT", "9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "root,ops", cfg.AdminUsers)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	p := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
files:
  users: /data/users.yaml
auth:
  legacy_plaintext: true
  strict_expiry: true
roster:
  reload_interval: 5m
logging:
  level: debug
`), 0o600))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/data/users.yaml", cfg.Files.Users)
	assert.Equal(t, "packages.yaml", cfg.Files.Packages)
	assert.True(t, cfg.Auth.LegacyPlaintext)
	assert.True(t, cfg.Auth.StrictExpiry)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Roster.ReloadInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	p := filepath.Join(dir, "portal.yaml")
	require.NoError(t, os.WriteFile(p, []byte("logging:\n  level: debug\n"), 0o600))
	t.Setenv("PORTAL_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidPort(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORTAL_PORT", "70000")
	_, err := Load("")
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
