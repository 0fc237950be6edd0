package engine

import (
	"github.com/shopspring/decimal"
)

// Contract and table names on the token sidechain.
const (
	contractTokens      = "tokens"
	contractMarket      = "market"
	contractMarketPools = "marketpools"

	tableBalances           = "balances"
	tableDelegations        = "delegations"
	tableTokens             = "tokens"
	tableMetrics            = "metrics"
	tablePools              = "pools"
	tableLiquidityPositions = "liquidityPositions"
)

// Balance is a single account/token row from the tokens contract.
// Quantities arrive as decimal strings on the wire.
type Balance struct {
	Account        string          `json:"account"`
	Symbol         string          `json:"symbol"`
	Balance        decimal.Decimal `json:"balance"`
	Stake          decimal.Decimal `json:"stake"`
	DelegationsOut decimal.Decimal `json:"delegationsOut"`
}

// Delegation is an outgoing token delegation row.
type Delegation struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
}

// MarketMetrics carries the internal market's last traded price (in
// SWAP.HIVE) and 24h volume for one symbol.
type MarketMetrics struct {
	Symbol    string          `json:"symbol"`
	LastPrice decimal.Decimal `json:"lastPrice"`
	Volume    decimal.Decimal `json:"volume"`
}

// LiquidityPosition is an account's share position in a diesel pool.
type LiquidityPosition struct {
	Account   string          `json:"account"`
	TokenPair string          `json:"tokenPair"`
	Shares    decimal.Decimal `json:"shares"`
}

// Pool describes a diesel pool's reserves and outstanding shares.
type Pool struct {
	TokenPair     string          `json:"tokenPair"`
	BaseSymbol    string          `json:"baseSymbol"`
	QuoteSymbol   string          `json:"quoteSymbol"`
	BaseQuantity  decimal.Decimal `json:"baseQuantity"`
	QuoteQuantity decimal.Decimal `json:"quoteQuantity"`
	TotalShares   decimal.Decimal `json:"totalShares"`
}

// Token is a row of the sidechain token registry, used for symbol
// validation.
type Token struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
