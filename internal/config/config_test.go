package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaults verifies the baked-in configuration.
func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 15, cfg.Cache.TTLMinutes)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 5*time.Second, cfg.BatchDelay())
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.Empty(t, cfg.Accounts)
	require.NoError(t, cfg.Validate())
}

// TestLoadLayersOverDefaults verifies file values override defaults
// while unset fields keep them.
func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accounts:
  alice: [LEO, SPS]
  bob: []
cache:
  ttl_minutes: 30
snapshots:
  dir: /var/lib/hivesnap
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"LEO", "SPS"}, cfg.Accounts["alice"])
	assert.Equal(t, 30, cfg.Cache.TTLMinutes)
	assert.Equal(t, "/var/lib/hivesnap", cfg.Snapshots.Dir)
	assert.Equal(t, 5, cfg.Batch.DelaySeconds, "default survives")
	require.NoError(t, cfg.Validate())
}

// TestLoadMissingFile verifies a missing config file is an error.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestSaveRoundTrip verifies Save then Load preserves the config.
func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Defaults()
	cfg.Accounts = map[string][]string{"alice": {"LEO"}}
	cfg.Cache.TTLMinutes = 45
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Accounts, loaded.Accounts)
	assert.Equal(t, 45, loaded.Cache.TTLMinutes)
}

// TestValidate verifies rejection of bad accounts and negative
// durations.
func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Accounts = map[string][]string{"Invalid..Name": nil}
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Cache.TTLMinutes = -1
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Batch.DelaySeconds = -1
	require.Error(t, cfg.Validate())
}
