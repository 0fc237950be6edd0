// Package hive provides shared types and plumbing for Hive data providers:
// account name validation, bounded retry with backoff, and per-endpoint
// rate limiting.
package hive

import (
	"strings"

	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

// Account name length limits enforced by the blockchain.
const (
	minAccountLen = 3
	maxAccountLen = 16
)

// Account is a Hive account name. Always stored lowercase.
type Account string

// NewAccount normalizes and validates a Hive account name.
func NewAccount(name string) (Account, error) {
	name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "@")))
	if err := ValidateAccountName(name); err != nil {
		return "", err
	}
	return Account(name), nil
}

func (a Account) String() string {
	return string(a)
}

// ValidateAccountName checks a name against the blockchain's account name
// rules: 3-16 characters, lowercase, starts with a letter, only letters,
// digits, dashes and dots, no consecutive or trailing dashes/dots.
func ValidateAccountName(name string) error {
	fail := func(reason string) error {
		return snaperr.WithDetails(snaperr.ErrInvalidAccount, map[string]string{
			"account": name,
			"reason":  reason,
		})
	}

	if name == "" {
		return fail("name is empty")
	}
	if len(name) < minAccountLen || len(name) > maxAccountLen {
		return fail("name must be between 3 and 16 characters")
	}
	if name[0] < 'a' || name[0] > 'z' {
		return fail("name must start with a letter")
	}
	if name[len(name)-1] == '-' || name[len(name)-1] == '.' {
		return fail("name cannot end with a dash or dot")
	}

	prevSeparator := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevSeparator = false
		case c == '-' || c == '.':
			if prevSeparator {
				return fail("name cannot have consecutive dashes or dots")
			}
			prevSeparator = true
		default:
			return fail("name can only contain lowercase letters, digits, dashes and dots")
		}
	}

	return nil
}

// Symbol is a Hive Engine token symbol, e.g. "LEO" or "SWAP.HIVE".
type Symbol string

// NormalizeSymbol uppercases a token symbol.
func NormalizeSymbol(s string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(s)))
}

func (s Symbol) String() string {
	return string(s)
}

// SwapHive is the HIVE-pegged token on the sidechain. It is the quote
// asset of the internal market, so its price is 1 HIVE by definition.
const SwapHive Symbol = "SWAP.HIVE"
