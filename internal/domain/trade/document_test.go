package trade

import (
	"errors"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocWithTotal(total string) *Document {
	doc := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              DocumentTypeInvoice,
		Number:            "INV-2024-00001",
		AmountPaid:        decimal.Zero,
		Lines:             []LineItem{{TaxableValue: dec(total), Amount: dec(total)}},
	}
	doc.Refresh()
	return doc
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		total  string
		paid   string
		voided bool
		want   DocumentStatus
	}{
		{"nothing paid", "1180", "0", false, DocumentStatusUnpaid},
		{"partially paid", "1180", "500", false, DocumentStatusPartiallyPaid},
		{"fully paid", "1180", "1180", false, DocumentStatusPaid},
		{"overpaid", "1180", "1200", false, DocumentStatusPaid},
		{"sub-paisa remainder is paid", "1180.001", "1180", false, DocumentStatusPaid},
		{"zero total", "0", "0", false, DocumentStatusPaid},
		{"void wins", "1180", "500", true, DocumentStatusVoid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(dec(tt.total), dec(tt.paid), tt.voided))
		})
	}
}

func TestDocumentStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, DocumentStatusUnpaid.CanTransitionTo(DocumentStatusPartiallyPaid))
	assert.True(t, DocumentStatusPartiallyPaid.CanTransitionTo(DocumentStatusPaid))
	assert.True(t, DocumentStatusUnpaid.CanTransitionTo(DocumentStatusVoid))
	assert.False(t, DocumentStatusPaid.CanTransitionTo(DocumentStatusVoid))
	assert.False(t, DocumentStatusPaid.CanTransitionTo(DocumentStatusUnpaid))
	assert.False(t, DocumentStatusPartiallyPaid.CanTransitionTo(DocumentStatusUnpaid))
	assert.False(t, DocumentStatusVoid.CanTransitionTo(DocumentStatusUnpaid))
}

func TestDocument_SetAmountPaid(t *testing.T) {
	doc := newDocWithTotal("1180")

	require.NoError(t, doc.SetAmountPaid(dec("500")))
	assert.True(t, doc.BalanceDue.Equal(dec("680")))
	assert.Equal(t, DocumentStatusPartiallyPaid, doc.Status)
	assert.Equal(t, 2, doc.Version)

	require.NoError(t, doc.SetAmountPaid(dec("1180")))
	assert.True(t, doc.BalanceDue.IsZero())
	assert.Equal(t, DocumentStatusPaid, doc.Status)
}

func TestDocument_SetAmountPaidNeverMovesBackwards(t *testing.T) {
	doc := newDocWithTotal("1180")
	require.NoError(t, doc.SetAmountPaid(dec("1180")))
	version := doc.Version

	err := doc.SetAmountPaid(dec("500"))
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	assert.Equal(t, DocumentStatusPaid, doc.Status)
	assert.True(t, doc.BalanceDue.IsZero())
	assert.Equal(t, version, doc.Version)

	partial := newDocWithTotal("1180")
	require.NoError(t, partial.SetAmountPaid(dec("500")))
	err = partial.SetAmountPaid(dec("0"))
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	assert.Equal(t, DocumentStatusPartiallyPaid, partial.Status)
}

func TestDocument_Void(t *testing.T) {
	t.Run("unpaid document voids once", func(t *testing.T) {
		doc := newDocWithTotal("100")
		require.NoError(t, doc.Void(false))
		assert.Equal(t, DocumentStatusVoid, doc.Status)
		assert.True(t, doc.IsVoid())

		err := doc.Void(false)
		assert.True(t, errors.Is(err, shared.ErrAlreadyVoid))
	})

	t.Run("paid document blocked without policy", func(t *testing.T) {
		doc := newDocWithTotal("100")
		require.NoError(t, doc.SetAmountPaid(dec("100")))

		err := doc.Void(false)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.False(t, doc.IsVoid())

		require.NoError(t, doc.Void(true))
		assert.True(t, doc.IsVoid())
	})

	t.Run("void blocks payments", func(t *testing.T) {
		doc := newDocWithTotal("100")
		require.NoError(t, doc.CanAcceptPayment())
		require.NoError(t, doc.Void(false))
		assert.True(t, errors.Is(doc.CanAcceptPayment(), shared.ErrInvalidState))
	})

	t.Run("status stays void after paid total changes", func(t *testing.T) {
		doc := newDocWithTotal("100")
		require.NoError(t, doc.Void(false))
		require.NoError(t, doc.SetAmountPaid(dec("0")))
		assert.Equal(t, DocumentStatusVoid, doc.Status)
	})
}

func TestDocumentType_StockDelta(t *testing.T) {
	assert.Equal(t, int64(-5), DocumentTypeInvoice.StockDelta(5))
	assert.Equal(t, int64(5), DocumentTypePurchase.StockDelta(5))
}
