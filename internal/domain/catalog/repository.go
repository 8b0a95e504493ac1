package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository persists products.
// Implementations bound to a transaction lock rows in FindByIDForUpdate
// until commit.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	Save(ctx context.Context, product *Product) error
	// UpdateStock writes stock_qty and version, failing with
	// CONCURRENCY_CONFLICT if the stored version is not expectedVersion
	UpdateStock(ctx context.Context, product *Product, expectedVersion int) error
}
