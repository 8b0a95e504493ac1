package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the header row of an invoice or purchase
type DocumentModel struct {
	AggregateModel
	DocumentType       trade.DocumentType   `gorm:"type:varchar(20);not null;uniqueIndex:idx_documents_type_number,priority:1"`
	Number             string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_documents_type_number,priority:2"`
	DocumentDate       time.Time            `gorm:"not null"`
	DueDate            time.Time            `gorm:"not null"`
	PartyID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	PlaceOfSupplyState string               `gorm:"type:varchar(100)"`
	GSTEnabled         bool                 `gorm:"column:gst_enabled;not null"`
	SameState          bool                 `gorm:"not null"`
	TaxableValue       decimal.Decimal      `gorm:"type:numeric(18,2);not null"`
	CGST               decimal.Decimal      `gorm:"column:cgst;type:numeric(18,2);not null"`
	SGST               decimal.Decimal      `gorm:"column:sgst;type:numeric(18,2);not null"`
	IGST               decimal.Decimal      `gorm:"column:igst;type:numeric(18,2);not null"`
	GrandTotal         decimal.Decimal      `gorm:"type:numeric(18,2);not null"`
	AmountPaid         decimal.Decimal      `gorm:"type:numeric(18,2);not null;default:0"`
	BalanceDue         decimal.Decimal      `gorm:"type:numeric(18,2);not null"`
	Status             trade.DocumentStatus `gorm:"type:varchar(20);not null;index"`
	VoidedAt           *time.Time
	Notes              string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the header to a domain Document without lines.
// Status is re-derived from the stored totals; the column is a projection
// kept for filtering.
func (m *DocumentModel) ToDomain() *trade.Document {
	doc := &trade.Document{
		BaseAggregateRoot:  m.Root(),
		Type:               m.DocumentType,
		Number:             m.Number,
		Date:               m.DocumentDate,
		DueDate:            m.DueDate,
		PartyID:            m.PartyID,
		PlaceOfSupplyState: m.PlaceOfSupplyState,
		GSTEnabled:         m.GSTEnabled,
		SameState:          m.SameState,
		TaxableValue:       m.TaxableValue,
		CGST:               m.CGST,
		SGST:               m.SGST,
		IGST:               m.IGST,
		GrandTotal:         m.GrandTotal,
		AmountPaid:         m.AmountPaid,
		BalanceDue:         m.GrandTotal.Sub(m.AmountPaid),
		Status:             m.Status,
		VoidedAt:           m.VoidedAt,
		Notes:              m.Notes,
	}
	if m.Status != trade.DocumentStatusDraft {
		doc.Status = trade.DeriveStatus(m.GrandTotal, m.AmountPaid, m.VoidedAt != nil)
	}
	return doc
}

// DocumentModelFromDomain creates a header model from a domain Document
func DocumentModelFromDomain(d *trade.Document) *DocumentModel {
	m := &DocumentModel{
		DocumentType:       d.Type,
		Number:             d.Number,
		DocumentDate:       d.Date,
		DueDate:            d.DueDate,
		PartyID:            d.PartyID,
		PlaceOfSupplyState: d.PlaceOfSupplyState,
		GSTEnabled:         d.GSTEnabled,
		SameState:          d.SameState,
		TaxableValue:       d.TaxableValue,
		CGST:               d.CGST,
		SGST:               d.SGST,
		IGST:               d.IGST,
		GrandTotal:         d.GrandTotal,
		AmountPaid:         d.AmountPaid,
		BalanceDue:         d.BalanceDue,
		Status:             d.Status,
		VoidedAt:           d.VoidedAt,
		Notes:              d.Notes,
	}
	m.SetRoot(d.BaseAggregateRoot)
	return m
}

// DocumentLineModel is one priced line of a document
type DocumentLineModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo       int             `gorm:"not null"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Qty          int64           `gorm:"not null"`
	Rate         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Discount     decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	GSTRate      decimal.Decimal `gorm:"column:gst_rate;type:numeric(5,2);not null"`
	TaxableValue decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	CGST         decimal.Decimal `gorm:"column:cgst;type:numeric(18,2);not null"`
	SGST         decimal.Decimal `gorm:"column:sgst;type:numeric(18,2);not null"`
	IGST         decimal.Decimal `gorm:"column:igst;type:numeric(18,2);not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(18,2);not null"`
}

// TableName returns the table name for GORM
func (DocumentLineModel) TableName() string {
	return "document_lines"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *DocumentLineModel) ToDomain() trade.LineItem {
	return trade.LineItem{
		ID:           m.ID,
		DocumentID:   m.DocumentID,
		LineNo:       m.LineNo,
		ProductID:    m.ProductID,
		Qty:          m.Qty,
		Rate:         m.Rate,
		Discount:     m.Discount,
		GSTRate:      m.GSTRate,
		TaxableValue: m.TaxableValue,
		CGST:         m.CGST,
		SGST:         m.SGST,
		IGST:         m.IGST,
		Amount:       m.Amount,
	}
}

// DocumentLineModelFromDomain creates a line model from a domain LineItem
func DocumentLineModelFromDomain(l *trade.LineItem) *DocumentLineModel {
	return &DocumentLineModel{
		ID:           l.ID,
		DocumentID:   l.DocumentID,
		LineNo:       l.LineNo,
		ProductID:    l.ProductID,
		Qty:          l.Qty,
		Rate:         l.Rate,
		Discount:     l.Discount,
		GSTRate:      l.GSTRate,
		TaxableValue: l.TaxableValue,
		CGST:         l.CGST,
		SGST:         l.SGST,
		IGST:         l.IGST,
		Amount:       l.Amount,
	}
}

// DocumentSeriesModel holds the counter of one numbering series
type DocumentSeriesModel struct {
	DocumentType trade.DocumentType `gorm:"type:varchar(20);primaryKey"`
	Prefix       string             `gorm:"type:varchar(20);primaryKey"`
	Year         int                `gorm:"primaryKey;autoIncrement:false"`
	LastNumber   int64              `gorm:"not null"`
	UpdatedAt    time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSeriesModel) TableName() string {
	return "document_series"
}

// AllModels lists every model, in dependency order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&PartyModel{},
		&ProductModel{},
		&DocumentModel{},
		&DocumentLineModel{},
		&DocumentSeriesModel{},
		&StockMovementModel{},
		&PaymentModel{},
	}
}
