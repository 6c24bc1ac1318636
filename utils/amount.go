// Package utils holds the amount and address helpers shared by the chain
// verifiers. Monetary amounts stay decimal strings at the boundaries;
// conversion to a ledger's base units happens here, on integers.
package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ValidateAmount checks that an amount string is a non-negative decimal.
func ValidateAmount(amount string) (decimal.Decimal, error) {
	if amount == "" {
		return decimal.Zero, fmt.Errorf("amount cannot be empty")
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %w", err)
	}
	if dec.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	}
	return dec, nil
}

// ParseBigInt parses a base-10 integer amount string.
func ParseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("value cannot be empty")
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer amount %q", value)
	}
	return n, nil
}

// ScaleByDecimals multiplies an integer amount by 10^decimals, converting a
// whole-unit requirement into token base units.
func ScaleByDecimals(amount *big.Int, decimals uint8) *big.Int {
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(amount, factor)
}
