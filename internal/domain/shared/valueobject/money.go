// Package valueobject holds the decimal conventions shared by every ledger amount.
package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every stored amount carries
const MoneyScale int32 = 2

// RoundMoney rounds to MoneyScale places, half away from zero.
// This is the only rounding mode used for tax, totals and payments.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ParseMoney parses a decimal string and rejects values that carry more
// precision than MoneyScale.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.Equal(RoundMoney(d)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places", s, MoneyScale)
	}
	return d, nil
}

// MoneyEqual compares two amounts after rounding both to MoneyScale
func MoneyEqual(a, b decimal.Decimal) bool {
	return RoundMoney(a).Equal(RoundMoney(b))
}

// SumMoney adds already-rounded amounts without re-rounding the total
func SumMoney(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
