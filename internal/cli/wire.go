package cli

import (
	"time"

	"github.com/gadrian78/he-tokens-snapshot/internal/config"
	"github.com/gadrian78/he-tokens-snapshot/internal/hive/condenser"
	"github.com/gadrian78/he-tokens-snapshot/internal/hive/engine"
	"github.com/gadrian78/he-tokens-snapshot/internal/pricing/coingecko"
	"github.com/gadrian78/he-tokens-snapshot/internal/runner"
	"github.com/gadrian78/he-tokens-snapshot/internal/snapshot"
	"github.com/gadrian78/he-tokens-snapshot/internal/source"
	"github.com/gadrian78/he-tokens-snapshot/internal/valuation"
)

// runOverrides carries per-invocation flag values that take precedence
// over the loaded configuration. Zero values mean "use the config".
type runOverrides struct {
	snapshotsDir string
	cacheDir     string
	cacheTTL     time.Duration
	skipLayer1   bool
}

// resolve applies the overrides on top of the configured values.
func (ov runOverrides) resolve(c *config.Config) (snapshotsDir, cacheDir string, ttl time.Duration) {
	snapshotsDir = c.Snapshots.Dir
	if ov.snapshotsDir != "" {
		snapshotsDir = ov.snapshotsDir
	}
	cacheDir = c.Cache.Dir
	if ov.cacheDir != "" {
		cacheDir = ov.cacheDir
	}
	ttl = c.CacheTTL()
	if ov.cacheTTL > 0 {
		ttl = ov.cacheTTL
	}
	return snapshotsDir, cacheDir, ttl
}

// buildRunner wires the remote clients, adapter, valuation engine and
// snapshot store into a runner, honoring the configured endpoints,
// directories and any command-line overrides.
func buildRunner(ov runOverrides) *runner.Runner {
	snapshotsDir, cacheDir, ttl := ov.resolve(cfg)

	engineClient := engine.NewClient(&engine.ClientOptions{
		BaseURL: cfg.Endpoints.Engine,
		Logger:  logger,
	})

	condenserClient := condenser.NewClient(&condenser.ClientOptions{
		Endpoints: cfg.Endpoints.Condenser,
		Logger:    logger,
	})

	priceClient := coingecko.NewClient(&coingecko.ClientOptions{
		BaseURL: cfg.Endpoints.CoinGecko,
		Logger:  logger,
	})

	adapter := source.NewAdapter(engineClient, condenserClient, priceClient, &source.Options{
		Logger:  logger,
		Metrics: counters,
	})

	store := snapshot.NewStore(snapshotsDir,
		snapshot.WithLogger(logger),
		snapshot.WithMetrics(counters))

	return runner.New(adapter, valuation.NewEngine(&valuation.Options{Logger: logger}),
		store, cacheDir, &runner.Options{
			CacheTTL:   ttl,
			SkipLayer1: ov.skipLayer1,
			Logger:     logger,
			Metrics:    counters,
		})
}
