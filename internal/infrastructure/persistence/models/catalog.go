package models

import (
	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog.Product.
// stock_qty is a cache of Σ stock_movements.delta for the product.
type ProductModel struct {
	AggregateModel
	SKU           string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	HSNCode       string          `gorm:"column:hsn_code;type:varchar(16)"`
	GSTRate       decimal.Decimal `gorm:"column:gst_rate;type:numeric(5,2);not null;default:0"`
	SalesPrice    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	StockQty      int64           `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.Root(),
		SKU:               m.SKU,
		Name:              m.Name,
		HSNCode:           m.HSNCode,
		GSTRate:           m.GSTRate,
		SalesPrice:        m.SalesPrice,
		PurchasePrice:     m.PurchasePrice,
		StockQty:          m.StockQty,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.SetRoot(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
	m.HSNCode = p.HSNCode
	m.GSTRate = p.GSTRate
	m.SalesPrice = p.SalesPrice
	m.PurchasePrice = p.PurchasePrice
	m.StockQty = p.StockQty
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
