package catalog

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxGSTRate bounds the percentage a product may carry
var MaxGSTRate = decimal.NewFromInt(100)

// Product is the ledger's view of a catalog item.
//
// StockQty is a cached projection of the stock movement log for this product;
// it must only change through inventory.StockPolicy.Apply inside the same
// transaction that appends the movement.
type Product struct {
	shared.BaseAggregateRoot
	SKU           string
	Name          string
	HSNCode       string
	GSTRate       decimal.Decimal
	SalesPrice    decimal.Decimal
	PurchasePrice decimal.Decimal
	StockQty      int64
}

// NewProduct creates a product with zero stock
func NewProduct(sku, name string, gstRate decimal.Decimal) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, shared.NewValidationError("product sku cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("product name cannot be empty")
	}
	if err := ValidateGSTRate(gstRate); err != nil {
		return nil, err
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              strings.TrimSpace(name),
		GSTRate:           gstRate,
		SalesPrice:        decimal.Zero,
		PurchasePrice:     decimal.Zero,
	}, nil
}

// SetPrices sets sales and purchase prices
func (p *Product) SetPrices(sales, purchase decimal.Decimal) error {
	if sales.IsNegative() || purchase.IsNegative() {
		return shared.NewValidationError("prices cannot be negative")
	}
	p.SalesPrice = sales
	p.PurchasePrice = purchase
	p.Touch()
	return nil
}

// ValidateGSTRate checks 0 <= rate <= 100
func ValidateGSTRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(MaxGSTRate) {
		return shared.NewValidationError("gst rate %s out of range", rate)
	}
	return nil
}
