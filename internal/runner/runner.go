// Package runner orchestrates a snapshot run: cached fetches, valuation
// and snapshot recording for one account, and sequential batches over
// many.
package runner

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/cache"
	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	"github.com/gadrian78/he-tokens-snapshot/internal/metrics"
	"github.com/gadrian78/he-tokens-snapshot/internal/snapshot"
	"github.com/gadrian78/he-tokens-snapshot/internal/source"
	"github.com/gadrian78/he-tokens-snapshot/internal/valuation"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

// DataSource is the remote fetch surface the runner drives.
type DataSource interface {
	FetchBalances(ctx context.Context, account hive.Account, symbols []hive.Symbol) (map[hive.Symbol]source.TokenBalance, error)
	FetchPools(ctx context.Context, account hive.Account) ([]source.PoolPosition, []string, error)
	FetchLayer1(ctx context.Context, account hive.Account) (*source.Layer1Holdings, error)
	FetchPrices(ctx context.Context, symbols []hive.Symbol) (map[hive.Symbol]source.PriceQuote, []string)
	FetchReferenceRates(ctx context.Context) (source.ReferenceRates, error)
	TokenRegistry(ctx context.Context) (map[hive.Symbol]struct{}, error)
}

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeSuccess means everything fetched, valued and recorded.
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means the snapshot was recorded but with degraded
	// data: unpriced symbols, skipped pools or a failed write bucket.
	OutcomePartial Outcome = "partial"
	// OutcomeFailed means no snapshot was recorded.
	OutcomeFailed Outcome = "failed"
)

// RunStatus is the result of one account run.
type RunStatus struct {
	Account     hive.Account
	Outcome     Outcome
	Portfolio   *valuation.Portfolio
	Document    *snapshot.Document
	Unpriced    []string
	FailedPools []string
	Snapshots   []snapshot.Outcome
	Err         error
}

// Runner executes snapshot runs.
type Runner struct {
	source     DataSource
	valuation  *valuation.Engine
	store      *snapshot.Store
	cacheDir   string
	ttl        time.Duration
	skipLayer1 bool
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Options configures a Runner.
type Options struct {
	// CacheTTL overrides the default 15 minute cache expiry.
	CacheTTL time.Duration
	// SkipLayer1 leaves layer-1 holdings out of the run entirely, so
	// sidechain snapshots keep working through a condenser outage.
	SkipLayer1 bool
	// Clock overrides time.Now, for deterministic tests.
	Clock func() time.Time
	// Sleep overrides the inter-account delay wait.
	Sleep func(ctx context.Context, d time.Duration) error
	// Logger sets the logger; defaults to a no-op logger.
	Logger *zap.Logger
	// Metrics records cache and snapshot counters.
	Metrics *metrics.Metrics
}

// New creates a runner over the given collaborators. Snapshots go
// through store; per-account caches live under cacheDir.
func New(src DataSource, engine *valuation.Engine, store *snapshot.Store, cacheDir string, opts *Options) *Runner {
	r := &Runner{
		source:    src,
		valuation: engine,
		store:     store,
		cacheDir:  cacheDir,
		ttl:       15 * time.Minute,
		now:       time.Now,
		sleep:     sleepContext,
		logger:    zap.NewNop(),
		metrics:   metrics.New(),
	}

	if opts != nil {
		if opts.CacheTTL > 0 {
			r.ttl = opts.CacheTTL
		}
		r.skipLayer1 = opts.SkipLayer1
		if opts.Clock != nil {
			r.now = opts.Clock
		}
		if opts.Sleep != nil {
			r.sleep = opts.Sleep
		}
		if opts.Logger != nil {
			r.logger = opts.Logger
		}
		if opts.Metrics != nil {
			r.metrics = opts.Metrics
		}
	}

	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// poolsResult bundles pool positions with the pairs that failed, so
// both halves share one cache entry.
type poolsResult struct {
	Pools  []source.PoolPosition `json:"pools"`
	Failed []string              `json:"failed"`
}

// Run captures, values and records one account's portfolio. Fetches go
// through the account's persistent cache; a fresh cache entry means no
// remote call at all. Account resolution failure is fatal for this run
// only.
func (r *Runner) Run(ctx context.Context, account hive.Account, symbols []hive.Symbol) *RunStatus {
	status := &RunStatus{Account: account, Outcome: OutcomeFailed}
	log := r.logger.With(zap.String("account", account.String()))

	store := cache.Open(filepath.Join(r.cacheDir, account.String()+".json"),
		cache.WithClock(r.now),
		cache.WithLogger(log),
		cache.WithMetrics(r.metrics))
	defer func() {
		store.PruneExpired()
		if err := store.Persist(); err != nil {
			log.Warn("cache persist failed", zap.Error(err))
		}
	}()

	var layer1 *source.Layer1Holdings
	if r.skipLayer1 {
		log.Debug("layer-1 holdings excluded from this run")
	} else {
		var err error
		layer1, err = cache.Lookup(ctx, store, cache.Key("layer1", account.String()), r.ttl,
			func(ctx context.Context) (*source.Layer1Holdings, error) {
				return r.source.FetchLayer1(ctx, account)
			})
		if err != nil {
			status.Err = err
			if errors.Is(err, snaperr.ErrAccountResolution) {
				log.Error("account does not resolve", zap.Error(err))
			} else {
				log.Error("layer-1 fetch failed", zap.Error(err))
			}
			return status
		}
	}

	symbolKey := make([]string, len(symbols))
	for i, s := range symbols {
		symbolKey[i] = s.String()
	}

	balances, err := cache.Lookup(ctx, store,
		cache.Key("balances", cache.SymbolSetHash(symbolKey)), r.ttl,
		func(ctx context.Context) (map[hive.Symbol]source.TokenBalance, error) {
			return r.source.FetchBalances(ctx, account, symbols)
		})
	if err != nil {
		status.Err = err
		log.Error("balance fetch failed", zap.Error(err))
		return status
	}

	pools, err := cache.Lookup(ctx, store, cache.Key("pools", account.String()), r.ttl,
		func(ctx context.Context) (poolsResult, error) {
			positions, failed, err := r.source.FetchPools(ctx, account)
			return poolsResult{Pools: positions, Failed: failed}, err
		})
	if err != nil {
		status.Err = err
		log.Error("pool fetch failed", zap.Error(err))
		return status
	}
	status.FailedPools = pools.Failed

	rates, err := cache.Lookup(ctx, store, cache.Key("rates", "usd"), r.ttl,
		func(ctx context.Context) (source.ReferenceRates, error) {
			return r.source.FetchReferenceRates(ctx)
		})
	if err != nil {
		status.Err = err
		log.Error("reference rate fetch failed", zap.Error(err))
		return status
	}

	prices := r.fetchPrices(ctx, store, log, priceUniverse(balances, pools.Pools))

	now := r.now()
	portfolio := r.valuation.Value(balances, pools.Pools, layer1, prices, rates)
	status.Portfolio = portfolio
	status.Unpriced = portfolio.Unpriced

	doc := snapshot.BuildDocument(account, portfolio, rates, now)
	status.Document = doc
	status.Snapshots = r.store.Record(account, doc, now)

	status.Outcome = OutcomeSuccess
	if len(portfolio.Unpriced) > 0 || len(pools.Failed) > 0 {
		status.Outcome = OutcomePartial
	}
	for _, o := range status.Snapshots {
		if o.Err != nil {
			status.Outcome = OutcomePartial
		}
	}

	log.Info("snapshot run complete",
		zap.String("outcome", string(status.Outcome)),
		zap.Strings("unpriced", status.Unpriced))
	return status
}

// priceUniverse merges holding symbols with pool leg symbols.
func priceUniverse(balances map[hive.Symbol]source.TokenBalance, pools []source.PoolPosition) []hive.Symbol {
	set := make(map[hive.Symbol]struct{}, len(balances))
	for s := range balances {
		set[s] = struct{}{}
	}
	for _, s := range source.PoolTokenUniverse(pools) {
		set[s] = struct{}{}
	}

	symbols := make([]hive.Symbol, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	return symbols
}

// fetchPrices looks each symbol up through the cache individually so a
// still-fresh quote survives an unrelated symbol's failure. A symbol
// that cannot be priced is simply absent from the result; valuation
// flags it.
func (r *Runner) fetchPrices(ctx context.Context, store *cache.Store, log *zap.Logger, symbols []hive.Symbol) map[hive.Symbol]source.PriceQuote {
	quotes := make(map[hive.Symbol]source.PriceQuote, len(symbols))

	for _, symbol := range symbols {
		quote, err := cache.Lookup(ctx, store, cache.Key("price", symbol.String()), r.ttl,
			func(ctx context.Context) (source.PriceQuote, error) {
				found, failed := r.source.FetchPrices(ctx, []hive.Symbol{symbol})
				if len(failed) > 0 {
					return source.PriceQuote{}, snaperr.WithDetails(snaperr.ErrTokenNotFound, map[string]string{
						"symbol": symbol.String(),
					})
				}
				return found[symbol], nil
			})
		if err != nil {
			log.Debug("quote unavailable", zap.String("symbol", symbol.String()))
			continue
		}
		quotes[symbol] = quote
	}

	return quotes
}
