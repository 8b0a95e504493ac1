package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("normalizes sku and starts with zero stock", func(t *testing.T) {
		p, err := NewProduct(" sku-001 ", "Steel Rod", decimal.NewFromInt(18))
		require.NoError(t, err)
		assert.Equal(t, "SKU-001", p.SKU)
		assert.Equal(t, int64(0), p.StockQty)
		assert.Equal(t, 1, p.Version)
	})

	tests := []struct {
		name string
		sku  string
		pn   string
		rate decimal.Decimal
	}{
		{"empty sku", "", "Rod", decimal.NewFromInt(5)},
		{"empty name", "SKU", " ", decimal.NewFromInt(5)},
		{"negative rate", "SKU", "Rod", decimal.NewFromInt(-1)},
		{"rate above 100", "SKU", "Rod", decimal.NewFromInt(101)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.sku, tt.pn, tt.rate)
			assert.Error(t, err)
		})
	}
}

func TestProduct_SetPrices(t *testing.T) {
	p, err := NewProduct("SKU", "Rod", decimal.NewFromInt(12))
	require.NoError(t, err)

	require.NoError(t, p.SetPrices(decimal.NewFromInt(120), decimal.NewFromInt(90)))
	assert.True(t, p.SalesPrice.Equal(decimal.NewFromInt(120)))

	assert.Error(t, p.SetPrices(decimal.NewFromInt(-1), decimal.Zero))
}
