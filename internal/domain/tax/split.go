// Package tax computes the GST split for a single document line.
package tax

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var (
	hundred    = decimal.NewFromInt(100)
	twoHundred = decimal.NewFromInt(200)
)

// Split is the GST breakdown of one line
type Split struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
	IGST decimal.Decimal
}

// Total returns cgst + sgst + igst
func (s Split) Total() decimal.Decimal {
	return s.CGST.Add(s.SGST).Add(s.IGST)
}

// IsIntraState reports whether the split was computed as CGST+SGST
func (s Split) IsIntraState() bool {
	return !s.CGST.IsZero() || !s.SGST.IsZero()
}

// Compute splits GST on taxableValue at gstRate percent.
//
// Each component is rounded on its own to two places (half away from zero),
// so intra-state CGST and SGST are always equal and their sum may differ from
// the single-rate amount by at most 0.01. Callers sum rounded line values;
// nothing here is re-rounded at header level.
func Compute(taxableValue, gstRate decimal.Decimal, gstEnabled, sameState bool) Split {
	zero := Split{CGST: decimal.Zero, SGST: decimal.Zero, IGST: decimal.Zero}
	if !gstEnabled {
		return zero
	}
	if sameState {
		half := valueobject.RoundMoney(taxableValue.Mul(gstRate).Div(twoHundred))
		return Split{CGST: half, SGST: half, IGST: decimal.Zero}
	}
	return Split{
		CGST: decimal.Zero,
		SGST: decimal.Zero,
		IGST: valueobject.RoundMoney(taxableValue.Mul(gstRate).Div(hundred)),
	}
}

// SingleRate returns the undivided tax amount, rounded once.
// Used to check that a split stays within rounding tolerance.
func SingleRate(taxableValue, gstRate decimal.Decimal) decimal.Decimal {
	return valueobject.RoundMoney(taxableValue.Mul(gstRate).Div(hundred))
}

// SameState compares a place of supply against the company's registered
// home state. Comparison ignores case and surrounding whitespace.
func SameState(placeOfSupply, homeState string) bool {
	p := strings.TrimSpace(placeOfSupply)
	h := strings.TrimSpace(homeState)
	if p == "" || h == "" {
		return false
	}
	return strings.EqualFold(p, h)
}
