package asset

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAsset is returned when an asset string cannot be decoded.
	ErrInvalidAsset = errors.New("invalid asset string")

	// ErrSymbolMismatch is returned when an asset carries a different
	// symbol or precision than expected.
	ErrSymbolMismatch = errors.New("asset symbol mismatch")
)

// Symbol is a source-chain token symbol with its fixed precision.
type Symbol struct {
	// Precision is the number of decimal places of the token.
	Precision uint8

	// Code is the ticker, e.g. "CHEX".
	Code string
}

// CHEX is the bridged token.
var CHEX = Symbol{Precision: 8, Code: "CHEX"}

// String returns the chain's "<precision>,<code>" notation.
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// Asset is a quantity of a token with fixed precision.
type Asset struct {
	Amount decimal.Decimal
	Symbol Symbol
}

// New returns an asset of the given number of whole units.
func New(units uint64, sym Symbol) Asset {
	return Asset{
		Amount: decimal.NewFromBigInt(new(big.Int).SetUint64(units), 0),
		Symbol: sym,
	}
}

// Zero returns the zero quantity of a symbol.
func Zero(sym Symbol) Asset {
	return Asset{Amount: decimal.Zero, Symbol: sym}
}

// String renders the asset the way the chain expects it: the amount with
// exactly Precision decimal places followed by a space and the ticker.
func (a Asset) String() string {
	return a.Amount.StringFixed(int32(a.Symbol.Precision)) + " " +
		a.Symbol.Code
}

// IsZero reports whether the amount is zero.
func (a Asset) IsZero() bool {
	return a.Amount.IsZero()
}

// Units returns the amount in the token's smallest indivisible unit.
func (a Asset) Units() int64 {
	return a.Amount.Shift(int32(a.Symbol.Precision)).IntPart()
}

// Parse decodes a chain asset string such as "15000.00000000 CHEX". The
// precision is taken from the number of fractional digits.
func Parse(s string) (Asset, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, s)
	}

	amountStr, code := fields[0], fields[1]
	if code == "" || strings.ToUpper(code) != code {
		return Asset{}, fmt.Errorf("%w: bad symbol in %q",
			ErrInvalidAsset, s)
	}

	var precision int
	if idx := strings.IndexByte(amountStr, '.'); idx >= 0 {
		precision = len(amountStr) - idx - 1
		if precision == 0 {
			return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, s)
		}
	}
	if precision > 18 {
		return Asset{}, fmt.Errorf("%w: precision %d too large",
			ErrInvalidAsset, precision)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	if amount.IsNegative() {
		return Asset{}, fmt.Errorf("%w: negative amount in %q",
			ErrInvalidAsset, s)
	}

	return Asset{
		Amount: amount,
		Symbol: Symbol{Precision: uint8(precision), Code: code},
	}, nil
}

// Expect checks that the asset is denominated in sym.
func (a Asset) Expect(sym Symbol) error {
	if a.Symbol != sym {
		return fmt.Errorf("%w: got %v, want %v", ErrSymbolMismatch,
			a.Symbol, sym)
	}
	return nil
}
