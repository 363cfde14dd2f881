package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "")
	t.Setenv("NATS_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
firestore:
  project_id: penny-prod
  collection: economy_users
nats:
  url: nats://broker:4222
throttle:
  commands_per_second: 2
  burst: 5
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "penny-prod", cfg.Firestore.ProjectID)
	assert.Equal(t, "economy_users", cfg.Firestore.Collection)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, 2.0, cfg.Throttle.CommandsPerSecond)
	assert.Equal(t, 5, cfg.Throttle.Burst)
	assert.Equal(t, ":9090", cfg.Observability.MetricsAddress, "defaults fill unset fields")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "penny-staging")
	t.Setenv("NATS_URL", "nats://env:4222")
	t.Setenv("THROTTLE_BURST", "9")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "penny-staging", cfg.Firestore.ProjectID)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, 9, cfg.Throttle.Burst)
	assert.Equal(t, "users", cfg.Firestore.Collection)
}

func TestLoadConfigReadErrorIsReported(t *testing.T) {
	// Only a missing file falls back to env vars; any other read failure is
	// surfaced. A directory path is unreadable regardless of the test user.
	t.Setenv("FIRESTORE_PROJECT_ID", "penny-prod")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfigRequiresProject(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT_ID", "")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
