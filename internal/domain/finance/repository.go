package finance

import (
	"context"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
)

// PaymentRepository stores payments; rows are insert-only
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// FindByDocument returns payments for a document ordered by creation
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]Payment, error)
	// FindByIdempotencyKey returns shared.ErrNotFound when the key is unused
	FindByIdempotencyKey(ctx context.Context, docType trade.DocumentType, key string) (*Payment, error)
}
