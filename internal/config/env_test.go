package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestApplyEnvironment verifies overrides land on the right fields.
func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvSnapshotsDir, "/tmp/snaps")
	t.Setenv(EnvCacheTTLMinutes, "30")
	t.Setenv(EnvEngineRPC, " https://example.com/rpc/contracts ")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvQuiet, "yes")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, "/tmp/snaps", cfg.Snapshots.Dir)
	assert.Equal(t, 30, cfg.Cache.TTLMinutes)
	assert.Equal(t, "https://example.com/rpc/contracts", cfg.Endpoints.Engine, "whitespace trimmed")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Output.Quiet)
}

// TestApplyEnvironmentIgnoresInvalid verifies malformed numeric values
// leave the defaults in place.
func TestApplyEnvironmentIgnoresInvalid(t *testing.T) {
	t.Setenv(EnvCacheTTLMinutes, "soon")
	t.Setenv(EnvBatchDelay, "-3")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, 15, cfg.Cache.TTLMinutes)
	assert.Equal(t, 5, cfg.Batch.DelaySeconds)
}

// TestNoColor verifies the NO_COLOR convention is honored.
func TestNoColor(t *testing.T) {
	t.Setenv(EnvNoColor, "1")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, "never", cfg.Output.Color)
}

// TestLoadEnvFile verifies .env values reach the environment without
// clobbering existing variables.
func TestLoadEnvFile(t *testing.T) {
	t.Setenv(EnvCacheDir, "preset")
	t.Cleanup(func() { _ = os.Unsetenv(EnvSnapshotsDir) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		EnvCacheDir+"=from-file\n"+EnvSnapshotsDir+"=/from/file\n"), 0o600))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "preset", os.Getenv(EnvCacheDir))
	assert.Equal(t, "/from/file", os.Getenv(EnvSnapshotsDir))
}

// TestLoadEnvFileMissing verifies a missing file is not an error.
func TestLoadEnvFileMissing(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
}
