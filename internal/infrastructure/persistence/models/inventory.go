package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/google/uuid"
)

// StockMovementModel is one append-only row of the stock ledger.
// (product_id, sequence) is unique; sequence is the product version that
// the movement advanced the cache to.
type StockMovementModel struct {
	ID               uuid.UUID                `gorm:"type:uuid;primaryKey"`
	ProductID        uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_stock_movements_product_seq,priority:1"`
	Sequence         int64                    `gorm:"not null;uniqueIndex:idx_stock_movements_product_seq,priority:2"`
	Delta            int64                    `gorm:"not null"`
	BalanceAfter     int64                    `gorm:"not null"`
	Reason           inventory.MovementReason `gorm:"type:varchar(20);not null"`
	SourceType       string                   `gorm:"type:varchar(20)"`
	SourceDocumentID *uuid.UUID               `gorm:"type:uuid;index"`
	Note             string                   `gorm:"type:text"`
	CreatedAt        time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement
func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:               m.ID,
		ProductID:        m.ProductID,
		Delta:            m.Delta,
		Reason:           m.Reason,
		SourceDocumentID: m.SourceDocumentID,
		SourceType:       m.SourceType,
		Sequence:         m.Sequence,
		BalanceAfter:     m.BalanceAfter,
		Note:             m.Note,
		CreatedAt:        m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:               s.ID,
		ProductID:        s.ProductID,
		Sequence:         s.Sequence,
		Delta:            s.Delta,
		BalanceAfter:     s.BalanceAfter,
		Reason:           s.Reason,
		SourceType:       s.SourceType,
		SourceDocumentID: s.SourceDocumentID,
		Note:             s.Note,
		CreatedAt:        s.CreatedAt,
	}
}
