package condenser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Asset is a layer-1 asset string such as "123.456 HIVE",
// "50.000 HBD" or "1000.000000 VESTS".
type Asset struct {
	Amount decimal.Decimal
	Symbol string
}

// UnmarshalJSON parses the condenser_api asset string form.
func (a *Asset) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseAsset(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON renders the asset back into its wire form.
func (a Asset) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", a.Amount.String()+" "+a.Symbol)), nil
}

// ParseAsset parses an "amount SYMBOL" string into an Asset.
func ParseAsset(s string) (Asset, error) {
	amountStr, symbol, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Asset{}, fmt.Errorf("malformed asset %q", s)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return Asset{}, fmt.Errorf("malformed asset amount %q: %w", s, err)
	}

	return Asset{Amount: amount, Symbol: symbol}, nil
}

// AccountInfo is the subset of a layer-1 account record the tracker needs.
type AccountInfo struct {
	Name                   string `json:"name"`
	Balance                Asset  `json:"balance"`
	SavingsBalance         Asset  `json:"savings_balance"`
	HbdBalance             Asset  `json:"hbd_balance"`
	SavingsHbdBalance      Asset  `json:"savings_hbd_balance"`
	VestingShares          Asset  `json:"vesting_shares"`
	DelegatedVestingShares Asset  `json:"delegated_vesting_shares"`
	ReceivedVestingShares  Asset  `json:"received_vesting_shares"`
}

// GlobalProperties carries the chain-wide vesting conversion state.
type GlobalProperties struct {
	TotalVestingFundHive Asset `json:"total_vesting_fund_hive"`
	TotalVestingShares   Asset `json:"total_vesting_shares"`
}

// HivePower converts a VESTS quantity into HIVE using the global vesting
// fund ratio. Returns zero when total shares are zero.
func (g *GlobalProperties) HivePower(vests decimal.Decimal) decimal.Decimal {
	if g.TotalVestingShares.Amount.IsZero() {
		return decimal.Zero
	}
	return vests.Mul(g.TotalVestingFundHive.Amount).Div(g.TotalVestingShares.Amount)
}
