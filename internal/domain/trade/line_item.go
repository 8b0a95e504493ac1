package trade

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a priced, taxed line owned by a document
type LineItem struct {
	ID           uuid.UUID
	DocumentID   uuid.UUID
	LineNo       int
	ProductID    uuid.UUID
	Qty          int64
	Rate         decimal.Decimal
	Discount     decimal.Decimal
	GSTRate      decimal.Decimal
	TaxableValue decimal.Decimal
	CGST         decimal.Decimal
	SGST         decimal.Decimal
	IGST         decimal.Decimal
	Amount       decimal.Decimal
}

// NewLineItem prices one line: taxable = round(qty*rate - discount),
// tax split per line, amount = taxable + cgst + sgst + igst.
func NewLineItem(documentID uuid.UUID, lineNo int, productID uuid.UUID, qty int64, rate, discount, gstRate decimal.Decimal, gstEnabled, sameState bool) (*LineItem, error) {
	if qty <= 0 {
		return nil, shared.NewValidationError("line %d: quantity must be positive", lineNo)
	}
	if rate.IsNegative() {
		return nil, shared.NewValidationError("line %d: rate cannot be negative", lineNo)
	}
	if discount.IsNegative() {
		return nil, shared.NewValidationError("line %d: discount cannot be negative", lineNo)
	}

	gross := rate.Mul(decimal.NewFromInt(qty))
	if discount.GreaterThan(gross) {
		return nil, shared.NewValidationError("line %d: discount exceeds line value", lineNo)
	}
	taxable := valueobject.RoundMoney(gross.Sub(discount))
	split := tax.Compute(taxable, gstRate, gstEnabled, sameState)

	return &LineItem{
		ID:           uuid.New(),
		DocumentID:   documentID,
		LineNo:       lineNo,
		ProductID:    productID,
		Qty:          qty,
		Rate:         rate,
		Discount:     discount,
		GSTRate:      gstRate,
		TaxableValue: taxable,
		CGST:         split.CGST,
		SGST:         split.SGST,
		IGST:         split.IGST,
		Amount:       taxable.Add(split.Total()),
	}, nil
}
