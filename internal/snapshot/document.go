package snapshot

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	"github.com/gadrian78/he-tokens-snapshot/internal/source"
	"github.com/gadrian78/he-tokens-snapshot/internal/valuation"
)

// Document is the on-disk snapshot shape. Marshaling is deterministic:
// identical input produces a byte-identical file.
type Document struct {
	Metadata Metadata     `json:"metadata"`
	Summary  Summary      `json:"summary"`
	Tokens   []TokenEntry `json:"tokens"`
	Pools    []PoolEntry  `json:"diesel_pools"`
	Layer1   *Layer1Entry `json:"layer1,omitempty"`
}

// Metadata identifies the account and the market anchors the snapshot
// was valued against.
type Metadata struct {
	Account   string          `json:"account"`
	Date      string          `json:"date"`
	Timestamp string          `json:"timestamp"`
	HiveUSD   decimal.Decimal `json:"hive_usd"`
	HbdUSD    decimal.Decimal `json:"hbd_usd"`
	BTCUSD    decimal.Decimal `json:"btc_usd"`
}

// Summary carries per-section and grand totals in every reporting
// currency.
type Summary struct {
	Tokens   valuation.Totals `json:"tokens"`
	Pools    valuation.Totals `json:"diesel_pools"`
	Layer1   valuation.Totals `json:"layer1"`
	Total    valuation.Totals `json:"total"`
	Unpriced []string         `json:"unpriced"`
}

// TokenEntry is one sidechain token line.
type TokenEntry struct {
	Symbol       string           `json:"symbol"`
	Liquid       decimal.Decimal  `json:"liquid"`
	Staked       decimal.Decimal  `json:"staked"`
	DelegatedOut decimal.Decimal  `json:"delegated_out"`
	Amount       decimal.Decimal  `json:"amount"`
	PriceHive    decimal.Decimal  `json:"price_hive"`
	Volume       decimal.Decimal  `json:"volume_24h"`
	Priced       bool             `json:"priced"`
	Values       valuation.Totals `json:"values"`
}

// PoolEntry is one diesel pool line, decomposed into token legs.
type PoolEntry struct {
	TokenPair   string           `json:"token_pair"`
	Shares      decimal.Decimal  `json:"shares"`
	ShareOfPool decimal.Decimal  `json:"share_of_pool"`
	BaseSymbol  string           `json:"base_symbol"`
	BaseAmount  decimal.Decimal  `json:"base_amount"`
	QuoteSymbol string           `json:"quote_symbol"`
	QuoteAmount decimal.Decimal  `json:"quote_amount"`
	Values      valuation.Totals `json:"values"`
}

// Layer1Entry is the layer-1 section.
type Layer1Entry struct {
	HiveLiquid     decimal.Decimal  `json:"hive_liquid"`
	HiveSavings    decimal.Decimal  `json:"hive_savings"`
	HbdLiquid      decimal.Decimal  `json:"hbd_liquid"`
	HbdSavings     decimal.Decimal  `json:"hbd_savings"`
	OwnedHP        decimal.Decimal  `json:"owned_hp"`
	DelegatedOutHP decimal.Decimal  `json:"delegated_out_hp"`
	DelegatedInHP  decimal.Decimal  `json:"delegated_in_hp"`
	EffectiveHP    decimal.Decimal  `json:"effective_hp"`
	Values         valuation.Totals `json:"values"`
}

// BuildDocument flattens a valued portfolio into the snapshot shape.
func BuildDocument(account hive.Account, p *valuation.Portfolio, rates source.ReferenceRates, now time.Time) *Document {
	doc := &Document{
		Metadata: Metadata{
			Account:   account.String(),
			Date:      now.UTC().Format("2006-01-02"),
			Timestamp: now.UTC().Format(time.RFC3339),
			HiveUSD:   rates.HiveUSD,
			HbdUSD:    rates.HbdUSD,
			BTCUSD:    rates.BTCUSD,
		},
		Summary: Summary{
			Tokens:   p.TokenTotals,
			Pools:    p.PoolTotals,
			Layer1:   p.Layer1Totals,
			Total:    p.Totals,
			Unpriced: p.Unpriced,
		},
		Tokens: make([]TokenEntry, 0, len(p.Holdings)),
		Pools:  make([]PoolEntry, 0, len(p.Pools)),
	}
	if doc.Summary.Unpriced == nil {
		doc.Summary.Unpriced = []string{}
	}

	for _, h := range p.Holdings {
		doc.Tokens = append(doc.Tokens, TokenEntry{
			Symbol:       h.Symbol.String(),
			Liquid:       h.Liquid,
			Staked:       h.Staked,
			DelegatedOut: h.DelegatedOut,
			Amount:       h.Amount,
			PriceHive:    h.PriceHive,
			Volume:       h.Volume,
			Priced:       h.Priced,
			Values:       h.Values,
		})
	}

	for _, pool := range p.Pools {
		doc.Pools = append(doc.Pools, PoolEntry{
			TokenPair:   pool.TokenPair,
			Shares:      pool.Shares,
			ShareOfPool: pool.ShareOfPool,
			BaseSymbol:  pool.BaseSymbol.String(),
			BaseAmount:  pool.BaseAmount,
			QuoteSymbol: pool.QuoteSymbol.String(),
			QuoteAmount: pool.QuoteAmount,
			Values:      pool.Values,
		})
	}

	if p.Layer1 != nil {
		doc.Layer1 = &Layer1Entry{
			HiveLiquid:     p.Layer1.HiveLiquid,
			HiveSavings:    p.Layer1.HiveSavings,
			HbdLiquid:      p.Layer1.HbdLiquid,
			HbdSavings:     p.Layer1.HbdSavings,
			OwnedHP:        p.Layer1.OwnedHP,
			DelegatedOutHP: p.Layer1.DelegatedOutHP,
			DelegatedInHP:  p.Layer1.DelegatedInHP,
			EffectiveHP:    p.Layer1.EffectiveHP,
			Values:         p.Layer1.Values,
		}
	}

	return doc
}
