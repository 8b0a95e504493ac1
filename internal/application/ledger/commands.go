package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineCommand is one requested document line
type LineCommand struct {
	ProductID uuid.UUID       `validate:"required"`
	Qty       int64           `validate:"gt=0"`
	Rate      decimal.Decimal `validate:"-"`
	Discount  decimal.Decimal `validate:"-"`
}

// CreateDocumentCommand creates an invoice or purchase
type CreateDocumentCommand struct {
	Type               trade.DocumentType `validate:"oneof=invoice purchase"`
	PartyID            uuid.UUID          `validate:"required"`
	PlaceOfSupplyState string             `validate:"max=100"`
	Date               time.Time
	DueDate            *time.Time
	Notes              string        `validate:"max=2000"`
	Lines              []LineCommand `validate:"required,min=1,dive"`
}

// AddPaymentCommand allocates a payment to a document
type AddPaymentCommand struct {
	DocumentType   trade.DocumentType `validate:"oneof=invoice purchase"`
	DocumentID     uuid.UUID          `validate:"required"`
	Amount         decimal.Decimal    `validate:"-"`
	Date           time.Time
	Method         finance.PaymentMethod `validate:"max=30"`
	ReferenceNo    string                `validate:"max=100"`
	IdempotencyKey string                `validate:"max=128"`
}

// AdjustStockCommand records a manual stock correction
type AdjustStockCommand struct {
	ProductID uuid.UUID `validate:"required"`
	Delta     int64     `validate:"ne=0"`
	Note      string    `validate:"max=500"`
}

// DocumentView is a document with its payment history
type DocumentView struct {
	Document *trade.Document
	Payments []finance.Payment
}

func (c CreateDocumentCommand) lineInputs() []trade.LineInput {
	lines := make([]trade.LineInput, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = trade.LineInput{
			ProductID: l.ProductID,
			Qty:       l.Qty,
			Rate:      l.Rate,
			Discount:  l.Discount,
		}
	}
	return lines
}
