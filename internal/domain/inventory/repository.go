package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HistoryFilter bounds a stock history query. Zero times are open ends.
type HistoryFilter struct {
	ProductID uuid.UUID
	From      time.Time
	To        time.Time
}

// StockMovementRepository is the append-only store for stock movements
type StockMovementRepository interface {
	Append(ctx context.Context, movement *StockMovement) error
	// History returns entries ordered by created_at, then sequence
	History(ctx context.Context, filter HistoryFilter) ([]StockMovement, error)
	// FindBySource returns entries recorded for a document, in sequence order
	FindBySource(ctx context.Context, documentID uuid.UUID) ([]StockMovement, error)
	// SumDeltas returns Σ delta for a product
	SumDeltas(ctx context.Context, productID uuid.UUID) (int64, error)
	// LastSequence returns the highest sequence recorded for a product, or 0
	LastSequence(ctx context.Context, productID uuid.UUID) (int64, error)
}
