package output

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	"github.com/gadrian78/he-tokens-snapshot/internal/snapshot"
	"github.com/gadrian78/he-tokens-snapshot/internal/source"
	"github.com/gadrian78/he-tokens-snapshot/internal/valuation"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleDocument(t *testing.T) *snapshot.Document {
	t.Helper()

	engine := valuation.NewEngine(nil)
	portfolio := engine.Value(
		map[hive.Symbol]source.TokenBalance{
			"LEO":     {Symbol: "LEO", Liquid: dec("100"), Staked: dec("50"), Total: dec("150")},
			"OBSCURE": {Symbol: "OBSCURE", Liquid: dec("7"), Total: dec("7")},
		},
		[]source.PoolPosition{{
			TokenPair:    "SWAP.HIVE:LEO",
			BaseSymbol:   hive.SwapHive,
			QuoteSymbol:  "LEO",
			Shares:       dec("10"),
			TotalShares:  dec("100"),
			BaseReserve:  dec("1000"),
			QuoteReserve: dec("2000"),
		}},
		&source.Layer1Holdings{HiveLiquid: dec("10"), OwnedHP: dec("90"), EffectiveHP: dec("90")},
		map[hive.Symbol]source.PriceQuote{
			"LEO":         {Symbol: "LEO", PriceHive: dec("0.5")},
			hive.SwapHive: {Symbol: hive.SwapHive, PriceHive: dec("1")},
		},
		source.ReferenceRates{HiveUSD: dec("0.25"), HbdUSD: dec("1"), BTCUSD: dec("50000")},
	)

	return snapshot.BuildDocument(hive.Account("alice"), portfolio,
		source.ReferenceRates{HiveUSD: dec("0.25"), HbdUSD: dec("1"), BTCUSD: dec("50000")},
		time.Date(2026, time.July, 2, 12, 0, 0, 0, time.UTC))
}

// TestRenderPortfolio verifies every section renders with display
// rounding applied.
func TestRenderPortfolio(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, RenderPortfolio(&sb, sampleDocument(t)))
	out := sb.String()

	assert.Contains(t, out, "Portfolio snapshot for @alice (2026-07-02)")
	assert.Contains(t, out, "Tokens")
	assert.Contains(t, out, "Diesel pools")
	assert.Contains(t, out, "Layer 1")
	assert.Contains(t, out, "Summary")

	assert.Contains(t, out, "150.000", "token amount at display precision")
	assert.Contains(t, out, "0.50000", "price at display precision")
	assert.Contains(t, out, "SWAP.HIVE:LEO")
	assert.Contains(t, out, "Unpriced (valued at zero)")
	assert.Contains(t, out, "OBSCURE")
}

// TestRenderPortfolioEmptySections verifies token and pool tables are
// omitted when empty but the summary always renders.
func TestRenderPortfolioEmptySections(t *testing.T) {
	engine := valuation.NewEngine(nil)
	portfolio := engine.Value(nil, nil, nil, nil,
		source.ReferenceRates{HiveUSD: dec("0.25"), HbdUSD: dec("1"), BTCUSD: dec("50000")})
	doc := snapshot.BuildDocument(hive.Account("alice"), portfolio,
		source.ReferenceRates{HiveUSD: dec("0.25"), HbdUSD: dec("1"), BTCUSD: dec("50000")},
		time.Date(2026, time.July, 2, 12, 0, 0, 0, time.UTC))

	var sb strings.Builder
	require.NoError(t, RenderPortfolio(&sb, doc))
	out := sb.String()

	assert.NotContains(t, out, "Diesel pools")
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "0.00")
}
