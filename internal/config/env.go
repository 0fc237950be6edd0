package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvSnapshotsDir    = "HIVESNAP_SNAPSHOTS_DIR"
	EnvCacheDir        = "HIVESNAP_CACHE_DIR"
	EnvCacheTTLMinutes = "HIVESNAP_CACHE_TTL_MINUTES"
	EnvEngineRPC       = "HIVESNAP_ENGINE_RPC"
	EnvCoinGeckoURL    = "HIVESNAP_COINGECKO_URL"
	EnvBatchDelay      = "HIVESNAP_BATCH_DELAY_SECONDS"
	EnvLogLevel        = "HIVESNAP_LOG_LEVEL"
	EnvQuiet           = "HIVESNAP_QUIET"
	EnvNoColor         = "NO_COLOR"
)

// LoadEnvFile loads a .env file into the process environment. A missing
// file is not an error; already-set variables keep their values.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnvironment applies environment variable overrides to the
// configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvSnapshotsDir); v != "" {
		cfg.Snapshots.Dir = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Cache.Dir = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvCacheTTLMinutes); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl >= 0 {
			cfg.Cache.TTLMinutes = ttl
		}
	}

	if v := os.Getenv(EnvEngineRPC); v != "" {
		cfg.Endpoints.Engine = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvCoinGeckoURL); v != "" {
		cfg.Endpoints.CoinGecko = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvBatchDelay); v != "" {
		if delay, err := strconv.Atoi(v); err == nil && delay >= 0 {
			cfg.Batch.DelaySeconds = delay
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvQuiet); v != "" {
		cfg.Output.Quiet = parseBool(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
