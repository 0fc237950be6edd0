package output

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/gadrian78/he-tokens-snapshot/internal/snapshot"
	"github.com/gadrian78/he-tokens-snapshot/internal/valuation"
)

// Display precision per currency. Stored values stay exact; rounding
// happens only here.
const (
	amountPlaces = 3
	pricePlaces  = 5
	usdPlaces    = 2
	hivePlaces   = 3
	btcPlaces    = 8
)

func fmtUSD(d decimal.Decimal) string  { return d.StringFixed(usdPlaces) }
func fmtHive(d decimal.Decimal) string { return d.StringFixed(hivePlaces) }
func fmtBTC(d decimal.Decimal) string  { return d.StringFixed(btcPlaces) }

func totalsCells(t valuation.Totals) (usd, hiveVal, btc string) {
	return fmtUSD(t[valuation.USD]), fmtHive(t[valuation.HIVE]), fmtBTC(t[valuation.BTC])
}

// RenderPortfolio writes the full snapshot document as text tables:
// tokens, diesel pools, layer-1 and the combined summary.
func RenderPortfolio(w io.Writer, doc *snapshot.Document) error {
	if _, err := fmt.Fprintf(w, "Portfolio snapshot for @%s (%s)\n\n",
		doc.Metadata.Account, doc.Metadata.Date); err != nil {
		return err
	}

	if len(doc.Tokens) > 0 {
		if err := renderTokens(w, doc.Tokens); err != nil {
			return err
		}
	}

	if len(doc.Pools) > 0 {
		if err := renderPools(w, doc.Pools); err != nil {
			return err
		}
	}

	if doc.Layer1 != nil {
		if err := renderLayer1(w, doc.Layer1); err != nil {
			return err
		}
	}

	return renderSummary(w, &doc.Summary)
}

func renderTokens(w io.Writer, tokens []snapshot.TokenEntry) error {
	table := NewTable("TOKEN", "AMOUNT", "STAKED", "PRICE (HIVE)", "USD", "HIVE", "BTC").AlignRight(1, 2, 3, 4, 5, 6)
	for _, t := range tokens {
		price := t.PriceHive.StringFixed(pricePlaces)
		if !t.Priced {
			price = "-"
		}
		usd, hiveVal, btc := totalsCells(t.Values)
		table.AddRow(t.Symbol,
			t.Amount.StringFixed(amountPlaces),
			t.Staked.StringFixed(amountPlaces),
			price, usd, hiveVal, btc)
	}

	if _, err := fmt.Fprintln(w, "Tokens"); err != nil {
		return err
	}
	if err := table.Render(w); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func renderPools(w io.Writer, pools []snapshot.PoolEntry) error {
	table := NewTable("POOL", "SHARES", "BASE", "QUOTE", "USD", "HIVE", "BTC").AlignRight(1, 4, 5, 6)
	for _, p := range pools {
		usd, hiveVal, btc := totalsCells(p.Values)
		table.AddRow(p.TokenPair,
			p.Shares.StringFixed(amountPlaces),
			fmt.Sprintf("%s %s", p.BaseAmount.StringFixed(amountPlaces), p.BaseSymbol),
			fmt.Sprintf("%s %s", p.QuoteAmount.StringFixed(amountPlaces), p.QuoteSymbol),
			usd, hiveVal, btc)
	}

	if _, err := fmt.Fprintln(w, "Diesel pools"); err != nil {
		return err
	}
	if err := table.Render(w); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func renderLayer1(w io.Writer, l1 *snapshot.Layer1Entry) error {
	table := NewTable("HOLDING", "AMOUNT").AlignRight(1)
	table.AddRow("HIVE (liquid)", fmtHive(l1.HiveLiquid))
	table.AddRow("HIVE (savings)", fmtHive(l1.HiveSavings))
	table.AddRow("HBD (liquid)", fmtHive(l1.HbdLiquid))
	table.AddRow("HBD (savings)", fmtHive(l1.HbdSavings))
	table.AddRow("HP (owned)", fmtHive(l1.OwnedHP))
	table.AddRow("HP (delegated out)", fmtHive(l1.DelegatedOutHP))
	table.AddRow("HP (delegated in)", fmtHive(l1.DelegatedInHP))
	table.AddRow("HP (effective)", fmtHive(l1.EffectiveHP))

	if _, err := fmt.Fprintln(w, "Layer 1"); err != nil {
		return err
	}
	if err := table.Render(w); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func renderSummary(w io.Writer, s *snapshot.Summary) error {
	table := NewTable("SECTION", "USD", "HIVE", "BTC").AlignRight(1, 2, 3)
	for _, row := range []struct {
		name   string
		totals valuation.Totals
	}{
		{"Tokens", s.Tokens},
		{"Diesel pools", s.Pools},
		{"Layer 1", s.Layer1},
		{"Total", s.Total},
	} {
		usd, hiveVal, btc := totalsCells(row.totals)
		table.AddRow(row.name, usd, hiveVal, btc)
	}

	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if err := table.Render(w); err != nil {
		return err
	}

	if len(s.Unpriced) > 0 {
		if _, err := fmt.Fprintf(w, "\nUnpriced (valued at zero): %v\n", s.Unpriced); err != nil {
			return err
		}
	}
	return nil
}
