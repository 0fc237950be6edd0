package source

import (
	"github.com/shopspring/decimal"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
)

// TokenBalance is a merged view of one sidechain token position.
// Total counts delegated-out tokens exactly once: they remain owned by
// the delegator even while staked with someone else.
type TokenBalance struct {
	Symbol       hive.Symbol
	Liquid       decimal.Decimal
	Staked       decimal.Decimal
	DelegatedOut decimal.Decimal
	Total        decimal.Decimal
}

// PoolPosition is an account's stake in one diesel pool plus the pool
// reserve state needed to decompose it into token legs.
type PoolPosition struct {
	TokenPair    string
	BaseSymbol   hive.Symbol
	QuoteSymbol  hive.Symbol
	Shares       decimal.Decimal
	TotalShares  decimal.Decimal
	BaseReserve  decimal.Decimal
	QuoteReserve decimal.Decimal
}

// Layer1Holdings captures an account's layer-1 balances. HP figures are
// already converted from VESTS.
type Layer1Holdings struct {
	HiveLiquid  decimal.Decimal
	HiveSavings decimal.Decimal
	HbdLiquid   decimal.Decimal
	HbdSavings  decimal.Decimal

	OwnedHP        decimal.Decimal
	DelegatedOutHP decimal.Decimal
	DelegatedInHP  decimal.Decimal
	EffectiveHP    decimal.Decimal
}

// PriceQuote is a sidechain token's internal market quote, denominated
// in SWAP.HIVE.
type PriceQuote struct {
	Symbol    hive.Symbol
	PriceHive decimal.Decimal
	Volume    decimal.Decimal
}

// ReferenceRates are the fiat/crypto conversion anchors for a run.
type ReferenceRates struct {
	HiveUSD decimal.Decimal
	HbdUSD  decimal.Decimal
	BTCUSD  decimal.Decimal
}
