package runner

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/gadrian78/he-tokens-snapshot/internal/hive"
	snaperr "github.com/gadrian78/he-tokens-snapshot/pkg/errors"
)

// MaxTypoDistance is the maximum Levenshtein distance to consider a
// suggestion. Symbols with distance > 2 are too different to suggest.
const MaxTypoDistance = 2

// ValidateSymbols checks the requested symbols against the sidechain
// token registry. Every unknown symbol is collected into one error;
// when a registered symbol is close enough, the error suggests it.
func (r *Runner) ValidateSymbols(ctx context.Context, symbols []hive.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}

	registry, err := r.source.TokenRegistry(ctx)
	if err != nil {
		return fmt.Errorf("loading token registry: %w", err)
	}

	var unknown, hints []string
	for _, symbol := range symbols {
		if _, ok := registry[symbol]; ok {
			continue
		}

		unknown = append(unknown, symbol.String())
		if suggestion := closestSymbol(symbol, registry); suggestion != "" {
			hints = append(hints, fmt.Sprintf("did you mean %q instead of %q?", suggestion, symbol))
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	e := snaperr.WithDetails(snaperr.ErrTokenNotFound, map[string]string{
		"symbols": strings.Join(unknown, ", "),
	})
	if len(hints) > 0 {
		e = snaperr.WithSuggestion(e, strings.Join(hints, "; "))
	}
	return e
}

// closestSymbol finds the registered symbol nearest to input, or empty
// if none is within MaxTypoDistance.
func closestSymbol(input hive.Symbol, registry map[hive.Symbol]struct{}) string {
	minDist := math.MaxInt
	var suggestion string

	for candidate := range registry {
		dist := levenshtein.ComputeDistance(input.String(), candidate.String())
		if dist < minDist {
			minDist = dist
			suggestion = candidate.String()
		}
		if dist == 0 {
			return candidate.String()
		}
	}

	if minDist <= MaxTypoDistance {
		return suggestion
	}
	return ""
}
