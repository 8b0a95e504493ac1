package finance

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how money moved
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid returns true for known methods
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodUPI,
		PaymentMethodCheque, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// ParsePaymentMethod normalizes a method name; empty means cash
func ParsePaymentMethod(s string) PaymentMethod {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return PaymentMethodCash
	}
	return m
}

// Payment is an immutable allocation of money against one document.
// Corrections are new payments, never edits.
type Payment struct {
	ID             uuid.UUID
	DocumentID     uuid.UUID
	DocumentType   trade.DocumentType
	Amount         decimal.Decimal
	Date           time.Time
	Method         PaymentMethod
	ReferenceNo    string
	IdempotencyKey string
	CreatedAt      time.Time
}

// SumPayments adds payment amounts
func SumPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
