package finance

import (
	"errors"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newInvoice(total string) *trade.Document {
	doc := &trade.Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              trade.DocumentTypeInvoice,
		Number:            "INV-2024-00001",
		AmountPaid:        decimal.Zero,
		Lines:             []trade.LineItem{{TaxableValue: dec(total), Amount: dec(total)}},
	}
	doc.Refresh()
	return doc
}

func TestAllocator_FullPayment(t *testing.T) {
	doc := newInvoice("1180")

	p, err := Allocator{}.Allocate(doc, decimal.Zero, AllocationRequest{Amount: dec("1180"), Method: PaymentMethodUPI})
	require.NoError(t, err)

	assert.True(t, p.Amount.Equal(dec("1180")))
	assert.Equal(t, doc.ID, p.DocumentID)
	assert.Equal(t, trade.DocumentTypeInvoice, p.DocumentType)
	assert.True(t, doc.BalanceDue.IsZero())
	assert.Equal(t, trade.DocumentStatusPaid, doc.Status)
}

func TestAllocator_TwoPartialPayments(t *testing.T) {
	doc := newInvoice("1180")
	alloc := Allocator{}

	_, err := alloc.Allocate(doc, decimal.Zero, AllocationRequest{Amount: dec("500")})
	require.NoError(t, err)
	assert.True(t, doc.BalanceDue.Equal(dec("680")))
	assert.Equal(t, trade.DocumentStatusPartiallyPaid, doc.Status)

	_, err = alloc.Allocate(doc, dec("500"), AllocationRequest{Amount: dec("680")})
	require.NoError(t, err)
	assert.True(t, doc.BalanceDue.IsZero())
	assert.Equal(t, trade.DocumentStatusPaid, doc.Status)
}

func TestAllocator_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		paid    string
		method  PaymentMethod
		wantErr error
	}{
		{"zero amount", "0", "0", PaymentMethodCash, shared.ErrInvalidAmount},
		{"negative amount", "-5", "0", PaymentMethodCash, shared.ErrInvalidAmount},
		{"exceeds balance", "1180.01", "0", PaymentMethodCash, shared.ErrOverpayment},
		{"exceeds remaining balance", "700", "500", PaymentMethodCash, shared.ErrOverpayment},
		{"sub-paisa precision", "10.001", "0", PaymentMethodCash, shared.ErrValidation},
		{"unknown method", "10", "0", PaymentMethod("barter"), shared.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newInvoice("1180")
			before := doc.Version

			_, err := Allocator{}.Allocate(doc, dec(tt.paid), AllocationRequest{Amount: dec(tt.amount), Method: tt.method})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, before, doc.Version, "document must be unchanged")
			assert.True(t, doc.AmountPaid.IsZero())
		})
	}
}

func TestAllocator_OverpaymentAllowed(t *testing.T) {
	doc := newInvoice("100")

	_, err := Allocator{AllowOverpayment: true}.Allocate(doc, decimal.Zero, AllocationRequest{Amount: dec("150")})
	require.NoError(t, err)
	assert.True(t, doc.BalanceDue.Equal(dec("-50")))
	assert.Equal(t, trade.DocumentStatusPaid, doc.Status)
}

func TestAllocator_VoidDocument(t *testing.T) {
	doc := newInvoice("100")
	require.NoError(t, doc.Void(false))

	_, err := Allocator{}.Allocate(doc, decimal.Zero, AllocationRequest{Amount: dec("10")})
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

// Balance never increases as payments are added and status only moves forward.
func TestAllocator_BalanceMonotonic(t *testing.T) {
	doc := newInvoice("1000")
	alloc := Allocator{}
	paid := decimal.Zero
	rank := map[trade.DocumentStatus]int{
		trade.DocumentStatusUnpaid:        0,
		trade.DocumentStatusPartiallyPaid: 1,
		trade.DocumentStatusPaid:          2,
	}

	prevBalance := doc.BalanceDue
	prevStatus := doc.Status
	for _, amt := range []string{"0.01", "99.99", "250", "150", "499.99", "0.01"} {
		p, err := alloc.Allocate(doc, paid, AllocationRequest{Amount: dec(amt)})
		require.NoError(t, err)
		paid = paid.Add(p.Amount)

		assert.True(t, doc.BalanceDue.LessThan(prevBalance))
		assert.GreaterOrEqual(t, rank[doc.Status], rank[prevStatus])
		prevBalance, prevStatus = doc.BalanceDue, doc.Status
	}
	assert.Equal(t, trade.DocumentStatusPaid, doc.Status)
	assert.True(t, SumPayments([]Payment{{Amount: dec("1")}, {Amount: dec("2.5")}}).Equal(dec("3.5")))
}

func TestParsePaymentMethod(t *testing.T) {
	assert.Equal(t, PaymentMethodCash, ParsePaymentMethod(""))
	assert.Equal(t, PaymentMethodUPI, ParsePaymentMethod(" UPI "))
}
