// Package source adapts the remote Hive APIs into the domain types the
// valuation engine consumes. Every remote call is rate limited by the
// underlying client, retried with backoff here, and recorded in metrics.
// No caching happens at this layer.
package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	"github.com/gadrian78/he-tokens-snapshot/internal/hive/condenser"
	"github.com/gadrian78/he-tokens-snapshot/internal/hive/engine"
	"github.com/gadrian78/he-tokens-snapshot/internal/metrics"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

// EngineAPI is the sidechain contract surface the adapter needs.
type EngineAPI interface {
	Balances(ctx context.Context, account hive.Account) ([]engine.Balance, error)
	Delegations(ctx context.Context, account hive.Account) ([]engine.Delegation, error)
	Metrics(ctx context.Context, symbol hive.Symbol) (*engine.MarketMetrics, error)
	LiquidityPositions(ctx context.Context, account hive.Account) ([]engine.LiquidityPosition, error)
	Pool(ctx context.Context, tokenPair string) (*engine.Pool, error)
	Tokens(ctx context.Context) (map[hive.Symbol]struct{}, error)
}

// CondenserAPI is the layer-1 surface the adapter needs.
type CondenserAPI interface {
	Account(ctx context.Context, account hive.Account) (*condenser.AccountInfo, error)
	GlobalProperties(ctx context.Context) (*condenser.GlobalProperties, error)
}

// PriceAPI provides the fiat reference quotes.
type PriceAPI interface {
	SimplePrice(ctx context.Context, ids, vsCurrencies []string) (map[string]map[string]decimal.Decimal, error)
}

// CoinGecko asset identifiers used for the reference rates.
const (
	rateIDHive       = "hive"
	rateIDHiveDollar = "hive_dollar"
	rateIDBitcoin    = "bitcoin"
)

// Adapter turns raw API responses into portfolio inputs.
type Adapter struct {
	engine    EngineAPI
	condenser CondenserAPI
	prices    PriceAPI
	retry     hive.RetryConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Options configures optional adapter collaborators.
type Options struct {
	// Retry overrides the default retry policy.
	Retry *hive.RetryConfig
	// Logger sets the logger; defaults to a no-op logger.
	Logger *zap.Logger
	// Metrics records API call counts and latency.
	Metrics *metrics.Metrics
}

// NewAdapter creates an adapter over the three remote clients.
func NewAdapter(engineClient EngineAPI, condenserClient CondenserAPI, priceClient PriceAPI, opts *Options) *Adapter {
	a := &Adapter{
		engine:    engineClient,
		condenser: condenserClient,
		prices:    priceClient,
		retry:     hive.DefaultRetryConfig(),
		logger:    zap.NewNop(),
		metrics:   metrics.New(),
	}

	if opts != nil {
		if opts.Retry != nil {
			a.retry = *opts.Retry
		}
		if opts.Logger != nil {
			a.logger = opts.Logger
		}
		if opts.Metrics != nil {
			a.metrics = opts.Metrics
		}
	}

	return a
}

// fetch runs one remote operation under the adapter's retry policy and
// records the outcome. Retry exhaustion on a transient failure is
// classified as ErrTransientFetch.
func fetch[T any](ctx context.Context, a *Adapter, provider string, op func() (T, error)) (T, error) {
	start := time.Now()
	result, err := hive.RetryWithConfig(ctx, a.retry, op)
	a.metrics.RecordAPICall(provider, time.Since(start), err)

	if err != nil && hive.IsRetryable(err) {
		err = fmt.Errorf("%w: %w", snaperr.ErrTransientFetch, err)
	}
	return result, err
}

// FetchBalances returns the account's token positions, merging balance
// rows with outgoing delegation rows. When symbols is non-empty only
// those symbols are returned; otherwise every position with a nonzero
// total is.
func (a *Adapter) FetchBalances(ctx context.Context, account hive.Account, symbols []hive.Symbol) (map[hive.Symbol]TokenBalance, error) {
	rows, err := fetch(ctx, a, metrics.ProviderEngine, func() ([]engine.Balance, error) {
		return a.engine.Balances(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	delegations, err := fetch(ctx, a, metrics.ProviderEngine, func() ([]engine.Delegation, error) {
		return a.engine.Delegations(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	delegatedOut := make(map[hive.Symbol]decimal.Decimal)
	for _, d := range delegations {
		symbol := hive.Symbol(d.Symbol)
		delegatedOut[symbol] = delegatedOut[symbol].Add(d.Quantity)
	}

	wanted := make(map[hive.Symbol]struct{}, len(symbols))
	for _, s := range symbols {
		wanted[s] = struct{}{}
	}

	balances := make(map[hive.Symbol]TokenBalance)
	for _, row := range rows {
		symbol := hive.Symbol(row.Symbol)

		out := row.DelegationsOut
		if sum, ok := delegatedOut[symbol]; ok && sum.GreaterThan(out) {
			out = sum
		}

		b := TokenBalance{
			Symbol:       symbol,
			Liquid:       row.Balance,
			Staked:       row.Stake,
			DelegatedOut: out,
			Total:        row.Balance.Add(row.Stake).Add(out),
		}

		if len(wanted) > 0 {
			if _, ok := wanted[symbol]; !ok {
				continue
			}
		} else if b.Total.IsZero() {
			continue
		}

		balances[symbol] = b
	}

	// Requested symbols with no balance row still appear, zeroed, so a
	// run reports them rather than silently dropping them.
	for s := range wanted {
		if _, ok := balances[s]; !ok {
			balances[s] = TokenBalance{Symbol: s}
		}
	}

	return balances, nil
}

// FetchPools returns the account's diesel pool positions with reserve
// state attached. Pools whose reserve info cannot be fetched land in
// failed and do not abort the run.
func (a *Adapter) FetchPools(ctx context.Context, account hive.Account) ([]PoolPosition, []string, error) {
	positions, err := fetch(ctx, a, metrics.ProviderEngine, func() ([]engine.LiquidityPosition, error) {
		return a.engine.LiquidityPositions(ctx, account)
	})
	if err != nil {
		return nil, nil, err
	}

	var (
		pools  []PoolPosition
		failed []string
	)
	for _, pos := range positions {
		pool, err := fetch(ctx, a, metrics.ProviderEngine, func() (*engine.Pool, error) {
			return a.engine.Pool(ctx, pos.TokenPair)
		})
		if err != nil {
			a.logger.Warn("skipping pool, reserve info unavailable",
				zap.String("tokenPair", pos.TokenPair),
				zap.Error(err))
			failed = append(failed, pos.TokenPair)
			continue
		}

		pools = append(pools, PoolPosition{
			TokenPair:    pool.TokenPair,
			BaseSymbol:   hive.Symbol(pool.BaseSymbol),
			QuoteSymbol:  hive.Symbol(pool.QuoteSymbol),
			Shares:       pos.Shares,
			TotalShares:  pool.TotalShares,
			BaseReserve:  pool.BaseQuantity,
			QuoteReserve: pool.QuoteQuantity,
		})
	}

	return pools, failed, nil
}

// FetchLayer1 returns the account's layer-1 holdings with vesting
// shares converted into HIVE power. An unknown account is an account
// resolution failure, fatal for the run.
func (a *Adapter) FetchLayer1(ctx context.Context, account hive.Account) (*Layer1Holdings, error) {
	info, err := fetch(ctx, a, metrics.ProviderCondenser, func() (*condenser.AccountInfo, error) {
		return a.condenser.Account(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, snaperr.WithDetails(snaperr.ErrAccountResolution, map[string]string{
			"account": account.String(),
		})
	}

	props, err := fetch(ctx, a, metrics.ProviderCondenser, func() (*condenser.GlobalProperties, error) {
		return a.condenser.GlobalProperties(ctx)
	})
	if err != nil {
		return nil, err
	}

	owned := props.HivePower(info.VestingShares.Amount)
	out := props.HivePower(info.DelegatedVestingShares.Amount)
	in := props.HivePower(info.ReceivedVestingShares.Amount)

	return &Layer1Holdings{
		HiveLiquid:     info.Balance.Amount,
		HiveSavings:    info.SavingsBalance.Amount,
		HbdLiquid:      info.HbdBalance.Amount,
		HbdSavings:     info.SavingsHbdBalance.Amount,
		OwnedHP:        owned,
		DelegatedOutHP: out,
		DelegatedInHP:  in,
		EffectiveHP:    owned.Sub(out).Add(in),
	}, nil
}

// FetchPrices returns HIVE-denominated quotes for the given symbols.
// SWAP.HIVE is pinned at 1. A symbol whose quote cannot be fetched, or
// that has no internal market, lands in failed; the rest still price.
func (a *Adapter) FetchPrices(ctx context.Context, symbols []hive.Symbol) (map[hive.Symbol]PriceQuote, []string) {
	quotes := make(map[hive.Symbol]PriceQuote, len(symbols))
	var failed []string

	for _, symbol := range symbols {
		if symbol == hive.SwapHive {
			quotes[symbol] = PriceQuote{Symbol: symbol, PriceHive: decimal.NewFromInt(1)}
			continue
		}

		m, err := fetch(ctx, a, metrics.ProviderEngine, func() (*engine.MarketMetrics, error) {
			return a.engine.Metrics(ctx, symbol)
		})
		if err != nil {
			a.logger.Warn("price unavailable",
				zap.String("symbol", symbol.String()),
				zap.Error(err))
			failed = append(failed, symbol.String())
			continue
		}
		if m == nil {
			a.logger.Debug("symbol has no internal market", zap.String("symbol", symbol.String()))
			failed = append(failed, symbol.String())
			continue
		}

		quotes[symbol] = PriceQuote{
			Symbol:    symbol,
			PriceHive: m.LastPrice,
			Volume:    m.Volume,
		}
	}

	return quotes, failed
}

// FetchReferenceRates returns the USD anchors for HIVE, HBD and BTC.
func (a *Adapter) FetchReferenceRates(ctx context.Context) (ReferenceRates, error) {
	rates, err := fetch(ctx, a, metrics.ProviderCoinGecko, func() (map[string]map[string]decimal.Decimal, error) {
		return a.prices.SimplePrice(ctx,
			[]string{rateIDHive, rateIDHiveDollar, rateIDBitcoin}, []string{"usd"})
	})
	if err != nil {
		return ReferenceRates{}, err
	}

	result := ReferenceRates{
		HiveUSD: rates[rateIDHive]["usd"],
		HbdUSD:  rates[rateIDHiveDollar]["usd"],
		BTCUSD:  rates[rateIDBitcoin]["usd"],
	}
	if result.HiveUSD.IsZero() || result.BTCUSD.IsZero() {
		return ReferenceRates{}, snaperr.WithDetails(snaperr.ErrAPIError, map[string]string{
			"reason": "reference rate response missing hive or bitcoin quote",
		})
	}
	return result, nil
}

// TokenRegistry returns every registered sidechain symbol, for
// validating requested symbols before a run.
func (a *Adapter) TokenRegistry(ctx context.Context) (map[hive.Symbol]struct{}, error) {
	return fetch(ctx, a, metrics.ProviderEngine, func() (map[hive.Symbol]struct{}, error) {
		return a.engine.Tokens(ctx)
	})
}

// PoolTokenUniverse returns the sorted set of symbols needed to price
// the legs of the given pool positions.
func PoolTokenUniverse(pools []PoolPosition) []hive.Symbol {
	set := make(map[hive.Symbol]struct{}, len(pools)*2)
	for _, p := range pools {
		set[p.BaseSymbol] = struct{}{}
		set[p.QuoteSymbol] = struct{}{}
	}

	symbols := make([]hive.Symbol, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	return symbols
}
