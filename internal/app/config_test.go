package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)

	require.True(t, cfg.Notifications.Enabled)
	require.Equal(t, 90, cfg.Notifications.TTLDays)
	require.Equal(t, int64(1), cfg.Notifications.FallbackAdminID)
	require.Equal(t, "@daily", cfg.Notifications.SweepSchedule)
	require.Equal(t, 90*24*time.Hour, cfg.Notifications.TTL())

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := []byte(`
server:
  port: 9100
  log_level: debug
notifications:
  ttl_days: 30
  fallback_admin_id: 7
  sweep_schedule: "@hourly"
database:
  driver: postgres
  user: posada
  name: posada
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), contents, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, 30, cfg.Notifications.TTLDays)
	require.Equal(t, int64(7), cfg.Notifications.FallbackAdminID)
	require.Equal(t, "@hourly", cfg.Notifications.SweepSchedule)

	settings := cfg.DatabaseSettings()
	require.Equal(t, "postgres", settings.Driver)
	require.Equal(t, "posada", settings.User)
}

func TestLoadConfigRejectsInvalidTTL(t *testing.T) {
	dir := t.TempDir()
	contents := []byte("notifications:\n  ttl_days: 0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), contents, 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
}
