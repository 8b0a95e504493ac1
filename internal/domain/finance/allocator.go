package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationRequest is one payment to apply
type AllocationRequest struct {
	Amount         decimal.Decimal
	Date           time.Time
	Method         PaymentMethod
	ReferenceNo    string
	IdempotencyKey string
}

// Allocator applies payments to documents
type Allocator struct {
	AllowOverpayment bool
}

// Allocate validates req against doc and, on success, returns the new Payment
// and moves doc to AmountPaid = alreadyPaid + amount. alreadyPaid must be the
// sum of payments read under the document's row lock.
func (a Allocator) Allocate(doc *trade.Document, alreadyPaid decimal.Decimal, req AllocationRequest) (*Payment, error) {
	if err := doc.CanAcceptPayment(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "payment amount must be greater than zero")
	}
	if !req.Amount.Equal(valueobject.RoundMoney(req.Amount)) {
		return nil, shared.NewValidationError("payment amount %s has more than %d decimal places", req.Amount, valueobject.MoneyScale)
	}
	method := req.Method
	if method == "" {
		method = PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("unknown payment method %q", req.Method)
	}

	balance := doc.GrandTotal.Sub(alreadyPaid)
	if req.Amount.GreaterThan(balance) && !a.AllowOverpayment {
		return nil, shared.NewDomainError(shared.CodeOverpayment,
			fmt.Sprintf("payment %s exceeds balance due %s on %s", req.Amount.StringFixed(2), balance.StringFixed(2), doc.Number))
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	now := time.Now().UTC()
	payment := &Payment{
		ID:             uuid.New(),
		DocumentID:     doc.ID,
		DocumentType:   doc.Type,
		Amount:         req.Amount,
		Date:           date,
		Method:         method,
		ReferenceNo:    strings.TrimSpace(req.ReferenceNo),
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
		CreatedAt:      now,
	}

	if err := doc.SetAmountPaid(alreadyPaid.Add(req.Amount)); err != nil {
		return nil, err
	}
	return payment, nil
}
