package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chexbridge/manual-chex-bridge/asset"
)

// MinimumTransfer is the smallest accepted transfer in whole units.
const MinimumTransfer uint64 = 10000

// ErrInvalidAmount is returned by ParseAmount for input that is not a
// non-negative whole number.
var ErrInvalidAmount = errors.New("amount must be a whole, non-negative number")

// ParseAmount turns raw user input into a whole number of units. Fractions,
// signs, and anything non-numeric are rejected instead of being coerced.
func ParseAmount(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidAmount
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
	}

	amount, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	return amount, nil
}

// AmountPolicy holds the minimum and formatting rules of the bridged asset.
type AmountPolicy struct {
	Minimum uint64
	Symbol  asset.Symbol
}

// DefaultAmountPolicy returns the CHEX policy.
func DefaultAmountPolicy() AmountPolicy {
	return AmountPolicy{
		Minimum: MinimumTransfer,
		Symbol:  asset.CHEX,
	}
}

// IsAboveMinimum reports whether amount meets the inclusive minimum.
func (p AmountPolicy) IsAboveMinimum(amount uint64) bool {
	return amount >= p.Minimum
}

// Quantity returns amount as an asset of the policy symbol.
func (p AmountPolicy) Quantity(amount uint64) asset.Asset {
	return asset.New(amount, p.Symbol)
}

// Format renders amount as the chain asset string, e.g.
// "10000.00000000 CHEX".
func (p AmountPolicy) Format(amount uint64) string {
	return p.Quantity(amount).String()
}
