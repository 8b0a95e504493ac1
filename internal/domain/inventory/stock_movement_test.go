package inventory

import (
	"errors"
	"testing"

	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T, stock int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("SKU-1", "Widget", decimal.NewFromInt(18))
	require.NoError(t, err)
	p.StockQty = stock
	return p
}

func TestNewStockMovement(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name    string
		delta   int64
		reason  MovementReason
		wantErr bool
	}{
		{"purchase positive", 5, ReasonPurchase, false},
		{"sale negative", -3, ReasonSale, false},
		{"adjustment either sign", -2, ReasonAdjustment, false},
		{"reversal either sign", 3, ReasonReversal, false},
		{"zero delta", 0, ReasonAdjustment, true},
		{"sale positive", 3, ReasonSale, true},
		{"purchase negative", -3, ReasonPurchase, true},
		{"unknown reason", 1, MovementReason("gift"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewStockMovement(productID, tt.delta, tt.reason)
			if tt.wantErr {
				assert.True(t, errors.Is(err, shared.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.delta, m.Delta)
			assert.NotEqual(t, uuid.Nil, m.ID)
		})
	}

	_, err := NewStockMovement(uuid.Nil, 1, ReasonPurchase)
	assert.Error(t, err)
}

func TestStockMovement_Reverse(t *testing.T) {
	docID := uuid.New()
	m, err := NewStockMovement(uuid.New(), -4, ReasonSale)
	require.NoError(t, err)
	m.WithSource("invoice", docID)

	r := m.Reverse()
	assert.Equal(t, int64(4), r.Delta)
	assert.Equal(t, ReasonReversal, r.Reason)
	assert.Equal(t, m.ProductID, r.ProductID)
	require.NotNil(t, r.SourceDocumentID)
	assert.Equal(t, docID, *r.SourceDocumentID)
	assert.NotEqual(t, m.ID, r.ID)
}

func TestStockPolicy_Apply(t *testing.T) {
	t.Run("purchase increases stock and version", func(t *testing.T) {
		p := newTestProduct(t, 10)
		m, _ := NewStockMovement(p.ID, 5, ReasonPurchase)

		require.NoError(t, StockPolicy{}.Apply(p, m))
		assert.Equal(t, int64(15), p.StockQty)
		assert.Equal(t, int64(15), m.BalanceAfter)
		assert.Equal(t, 2, p.Version)
		assert.Equal(t, int64(2), m.Sequence)
	})

	t.Run("sale below zero rejected by default", func(t *testing.T) {
		p := newTestProduct(t, 10)
		m, _ := NewStockMovement(p.ID, -12, ReasonSale)

		err := StockPolicy{}.Apply(p, m)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, int64(10), p.StockQty)
		assert.Equal(t, 1, p.Version)
	})

	t.Run("sale to exactly zero allowed", func(t *testing.T) {
		p := newTestProduct(t, 10)
		m, _ := NewStockMovement(p.ID, -10, ReasonSale)

		require.NoError(t, StockPolicy{}.Apply(p, m))
		assert.Equal(t, int64(0), p.StockQty)
	})

	t.Run("backorders allow negative stock", func(t *testing.T) {
		p := newTestProduct(t, 10)
		m, _ := NewStockMovement(p.ID, -12, ReasonSale)

		require.NoError(t, StockPolicy{AllowBackorders: true}.Apply(p, m))
		assert.Equal(t, int64(-2), p.StockQty)
	})

	t.Run("product mismatch", func(t *testing.T) {
		p := newTestProduct(t, 10)
		m, _ := NewStockMovement(uuid.New(), 1, ReasonPurchase)
		assert.Error(t, StockPolicy{}.Apply(p, m))
	})
}
