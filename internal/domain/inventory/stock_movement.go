package inventory

import (
	"time"

	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementReason classifies a stock movement
type MovementReason string

const (
	// ReasonPurchase is stock received on a purchase document (delta > 0)
	ReasonPurchase MovementReason = "purchase"
	// ReasonSale is stock issued on an invoice (delta < 0)
	ReasonSale MovementReason = "sale"
	// ReasonAdjustment is a manual stock correction
	ReasonAdjustment MovementReason = "adjustment"
	// ReasonReversal offsets an earlier movement when its document is voided
	ReasonReversal MovementReason = "reversal"
)

// String returns the string representation of MovementReason
func (r MovementReason) String() string {
	return string(r)
}

// IsValid returns true if the reason is known
func (r MovementReason) IsValid() bool {
	switch r {
	case ReasonPurchase, ReasonSale, ReasonAdjustment, ReasonReversal:
		return true
	}
	return false
}

// StockMovement is one append-only entry in the stock ledger.
// Entries are never updated or deleted; corrections are new entries.
type StockMovement struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	Delta            int64
	Reason           MovementReason
	SourceDocumentID *uuid.UUID
	// SourceType is "invoice", "purchase" or empty for adjustments
	SourceType string
	// Sequence orders entries per product; it is the product version
	// assigned while the product row is locked.
	Sequence     int64
	BalanceAfter int64
	Note         string
	CreatedAt    time.Time
}

// NewStockMovement validates the sign rules for each reason
func NewStockMovement(productID uuid.UUID, delta int64, reason MovementReason) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product id is required")
	}
	if !reason.IsValid() {
		return nil, shared.NewValidationError("unknown movement reason %q", reason)
	}
	if delta == 0 {
		return nil, shared.NewValidationError("movement delta cannot be zero")
	}
	if reason == ReasonSale && delta > 0 {
		return nil, shared.NewValidationError("sale movement must decrease stock")
	}
	if reason == ReasonPurchase && delta < 0 {
		return nil, shared.NewValidationError("purchase movement must increase stock")
	}

	return &StockMovement{
		ID:        uuid.New(),
		ProductID: productID,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// WithSource links the movement to the document that caused it
func (m *StockMovement) WithSource(sourceType string, documentID uuid.UUID) *StockMovement {
	m.SourceType = sourceType
	m.SourceDocumentID = &documentID
	return m
}

// WithNote sets a free-text note
func (m *StockMovement) WithNote(note string) *StockMovement {
	m.Note = note
	return m
}

// Reverse builds the offsetting movement for m
func (m *StockMovement) Reverse() *StockMovement {
	r := &StockMovement{
		ID:         uuid.New(),
		ProductID:  m.ProductID,
		Delta:      -m.Delta,
		Reason:     ReasonReversal,
		SourceType: m.SourceType,
		Note:       "reversal of " + m.ID.String(),
		CreatedAt:  time.Now().UTC(),
	}
	if m.SourceDocumentID != nil {
		id := *m.SourceDocumentID
		r.SourceDocumentID = &id
	}
	return r
}

// StockPolicy holds the configurable rules applied when recording movements
type StockPolicy struct {
	AllowBackorders bool
}

// Apply checks m against the product's cached balance and, if allowed,
// advances the product: StockQty += Delta and Version++. The movement's
// BalanceAfter and Sequence are filled in. The product must be locked by the
// caller for the duration of the enclosing transaction.
func (p StockPolicy) Apply(product *catalog.Product, m *StockMovement) error {
	if product.ID != m.ProductID {
		return shared.NewValidationError("movement product %s does not match %s", m.ProductID, product.ID)
	}
	resulting := product.StockQty + m.Delta
	if m.Reason == ReasonSale && resulting < 0 && !p.AllowBackorders {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			"insufficient stock for "+product.SKU)
	}

	product.StockQty = resulting
	product.MarkChanged()

	m.BalanceAfter = resulting
	m.Sequence = int64(product.Version)
	return nil
}
