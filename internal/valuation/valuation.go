// Package valuation converts fetched positions into a valued portfolio.
// All arithmetic is exact decimal; rounding is a display concern.
package valuation

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	"github.com/gadrian78/he-tokens-snapshot/internal/source"
)

// Currency is a portfolio reporting currency.
type Currency string

const (
	USD  Currency = "USD"
	HIVE Currency = "HIVE"
	BTC  Currency = "BTC"
)

// Currencies lists the reporting currencies in display order.
func Currencies() []Currency {
	return []Currency{USD, HIVE, BTC}
}

// Totals maps a reporting currency to an exact value.
type Totals map[Currency]decimal.Decimal

// Add returns the element-wise sum of two total sets.
func (t Totals) Add(other Totals) Totals {
	sum := make(Totals, len(t))
	for _, c := range Currencies() {
		sum[c] = t[c].Add(other[c])
	}
	return sum
}

// ZeroTotals returns an explicit zero for every reporting currency.
func ZeroTotals() Totals {
	return Totals{USD: decimal.Zero, HIVE: decimal.Zero, BTC: decimal.Zero}
}

// ValuedHolding is one sidechain token position with its value in every
// reporting currency.
type ValuedHolding struct {
	Symbol       hive.Symbol
	Liquid       decimal.Decimal
	Staked       decimal.Decimal
	DelegatedOut decimal.Decimal
	Amount       decimal.Decimal
	PriceHive    decimal.Decimal
	Volume       decimal.Decimal
	Priced       bool
	Values       Totals
}

// ValuedPool is one diesel pool position decomposed into token legs.
type ValuedPool struct {
	TokenPair   string
	Shares      decimal.Decimal
	ShareOfPool decimal.Decimal
	BaseSymbol  hive.Symbol
	BaseAmount  decimal.Decimal
	QuoteSymbol hive.Symbol
	QuoteAmount decimal.Decimal
	Values      Totals
}

// ValuedLayer1 is the layer-1 section of the portfolio. Delegations are
// reported but only owned HP counts toward the totals.
type ValuedLayer1 struct {
	HiveLiquid     decimal.Decimal
	HiveSavings    decimal.Decimal
	HbdLiquid      decimal.Decimal
	HbdSavings     decimal.Decimal
	OwnedHP        decimal.Decimal
	DelegatedOutHP decimal.Decimal
	DelegatedInHP  decimal.Decimal
	EffectiveHP    decimal.Decimal
	Values         Totals
}

// Portfolio is the full valued result for one account at one instant.
type Portfolio struct {
	Holdings []ValuedHolding
	Pools    []ValuedPool
	Layer1   *ValuedLayer1

	TokenTotals  Totals
	PoolTotals   Totals
	Layer1Totals Totals
	Totals       Totals

	// Unpriced lists symbols that were valued at zero because no quote
	// was available.
	Unpriced []string
}

// PoolDecomposer splits a pool position into base and quote token
// amounts.
type PoolDecomposer interface {
	Decompose(pos source.PoolPosition) (base, quote decimal.Decimal)
}

// ReservesRatioDecomposer applies the constant-product pool share
// formula: userShares / totalShares of each reserve.
type ReservesRatioDecomposer struct{}

// Decompose implements PoolDecomposer.
func (ReservesRatioDecomposer) Decompose(pos source.PoolPosition) (decimal.Decimal, decimal.Decimal) {
	if pos.TotalShares.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	ratio := pos.Shares.Div(pos.TotalShares)
	return pos.BaseReserve.Mul(ratio), pos.QuoteReserve.Mul(ratio)
}

// Engine values portfolios.
type Engine struct {
	decomposer PoolDecomposer
	logger     *zap.Logger
}

// Options configures the engine.
type Options struct {
	// Decomposer overrides the default reserves-ratio pool split.
	Decomposer PoolDecomposer
	// Logger sets the logger; defaults to a no-op logger.
	Logger *zap.Logger
}

// NewEngine creates a valuation engine.
func NewEngine(opts *Options) *Engine {
	e := &Engine{
		decomposer: ReservesRatioDecomposer{},
		logger:     zap.NewNop(),
	}
	if opts != nil {
		if opts.Decomposer != nil {
			e.decomposer = opts.Decomposer
		}
		if opts.Logger != nil {
			e.logger = opts.Logger
		}
	}
	return e
}

// convert turns a HIVE-denominated value into a full total set. Values
// compose through the HIVE base: USD = HIVE × HiveUSD, BTC = USD /
// BTCUSD.
func convert(hiveValue decimal.Decimal, rates source.ReferenceRates) Totals {
	usd := hiveValue.Mul(rates.HiveUSD)
	btc := decimal.Zero
	if !rates.BTCUSD.IsZero() {
		btc = usd.Div(rates.BTCUSD)
	}
	return Totals{HIVE: hiveValue, USD: usd, BTC: btc}
}

// convertUSD turns a USD-denominated value into a full total set.
func convertUSD(usdValue decimal.Decimal, rates source.ReferenceRates) Totals {
	hiveValue := decimal.Zero
	if !rates.HiveUSD.IsZero() {
		hiveValue = usdValue.Div(rates.HiveUSD)
	}
	btc := decimal.Zero
	if !rates.BTCUSD.IsZero() {
		btc = usdValue.Div(rates.BTCUSD)
	}
	return Totals{HIVE: hiveValue, USD: usdValue, BTC: btc}
}

// Value assembles the valued portfolio. A position with no available
// quote is valued at zero in every currency and its symbol recorded in
// Unpriced; it never aborts the valuation.
func (e *Engine) Value(
	holdings map[hive.Symbol]source.TokenBalance,
	pools []source.PoolPosition,
	layer1 *source.Layer1Holdings,
	prices map[hive.Symbol]source.PriceQuote,
	rates source.ReferenceRates,
) *Portfolio {
	p := &Portfolio{
		TokenTotals:  ZeroTotals(),
		PoolTotals:   ZeroTotals(),
		Layer1Totals: ZeroTotals(),
	}
	unpriced := make(map[string]struct{})

	symbols := make([]hive.Symbol, 0, len(holdings))
	for s := range holdings {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	for _, symbol := range symbols {
		b := holdings[symbol]
		h := ValuedHolding{
			Symbol:       b.Symbol,
			Liquid:       b.Liquid,
			Staked:       b.Staked,
			DelegatedOut: b.DelegatedOut,
			Amount:       b.Total,
			Values:       ZeroTotals(),
		}

		if quote, ok := prices[symbol]; ok {
			h.Priced = true
			h.PriceHive = quote.PriceHive
			h.Volume = quote.Volume
			h.Values = convert(b.Total.Mul(quote.PriceHive), rates)
		} else {
			unpriced[symbol.String()] = struct{}{}
		}

		p.TokenTotals = p.TokenTotals.Add(h.Values)
		p.Holdings = append(p.Holdings, h)
	}

	for _, pos := range pools {
		baseAmt, quoteAmt := e.decomposer.Decompose(pos)
		v := ValuedPool{
			TokenPair:   pos.TokenPair,
			Shares:      pos.Shares,
			BaseSymbol:  pos.BaseSymbol,
			BaseAmount:  baseAmt,
			QuoteSymbol: pos.QuoteSymbol,
			QuoteAmount: quoteAmt,
			Values:      ZeroTotals(),
		}
		if !pos.TotalShares.IsZero() {
			v.ShareOfPool = pos.Shares.Div(pos.TotalShares)
		}

		hiveValue := decimal.Zero
		for _, leg := range []struct {
			symbol hive.Symbol
			amount decimal.Decimal
		}{
			{pos.BaseSymbol, baseAmt},
			{pos.QuoteSymbol, quoteAmt},
		} {
			quote, ok := prices[leg.symbol]
			if !ok {
				unpriced[leg.symbol.String()] = struct{}{}
				continue
			}
			hiveValue = hiveValue.Add(leg.amount.Mul(quote.PriceHive))
		}

		v.Values = convert(hiveValue, rates)
		p.PoolTotals = p.PoolTotals.Add(v.Values)
		p.Pools = append(p.Pools, v)
	}

	if layer1 != nil {
		hiveLeg := layer1.HiveLiquid.Add(layer1.HiveSavings).Add(layer1.OwnedHP)
		hbdLeg := layer1.HbdLiquid.Add(layer1.HbdSavings)

		values := convert(hiveLeg, rates).Add(convertUSD(hbdLeg.Mul(rates.HbdUSD), rates))
		p.Layer1 = &ValuedLayer1{
			HiveLiquid:     layer1.HiveLiquid,
			HiveSavings:    layer1.HiveSavings,
			HbdLiquid:      layer1.HbdLiquid,
			HbdSavings:     layer1.HbdSavings,
			OwnedHP:        layer1.OwnedHP,
			DelegatedOutHP: layer1.DelegatedOutHP,
			DelegatedInHP:  layer1.DelegatedInHP,
			EffectiveHP:    layer1.EffectiveHP,
			Values:         values,
		}
		p.Layer1Totals = values
	}

	p.Totals = p.TokenTotals.Add(p.PoolTotals).Add(p.Layer1Totals)

	p.Unpriced = make([]string, 0, len(unpriced))
	for s := range unpriced {
		p.Unpriced = append(p.Unpriced, s)
	}
	sort.Strings(p.Unpriced)

	return p
}
