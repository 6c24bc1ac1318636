package clients

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmountToBaseUnits converts an amount string to a ledger's base units.
// A string containing a decimal point is the ledger's fractional
// denomination and scales by 10^exp; a string without one is already in base
// units.
func parseAmountToBaseUnits(amount string, exp int32) (uint64, error) {
	amount = strings.ReplaceAll(strings.TrimSpace(amount), ",", "")
	if amount == "" {
		return 0, fmt.Errorf("amount cannot be empty")
	}
	if strings.Contains(amount, ".") {
		units, err := decimal.NewFromString(amount)
		if err != nil {
			return 0, fmt.Errorf("invalid amount format: %s", amount)
		}
		if units.IsNegative() {
			return 0, fmt.Errorf("amount cannot be negative")
		}
		base := units.Shift(exp).Round(0).BigInt()
		if !base.IsUint64() {
			return 0, fmt.Errorf("amount out of range: %s", amount)
		}
		return base.Uint64(), nil
	}
	base, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid base unit amount format: %s", amount)
	}
	return base, nil
}
