package trade

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository persists documents together with their lines
type DocumentRepository interface {
	// Create inserts the document and all lines
	Create(ctx context.Context, doc *Document) error
	FindByID(ctx context.Context, docType DocumentType, id uuid.UUID) (*Document, error)
	// FindByIDForUpdate loads and row-locks the document header until commit
	FindByIDForUpdate(ctx context.Context, docType DocumentType, id uuid.UUID) (*Document, error)
	FindByNumber(ctx context.Context, docType DocumentType, number string) (*Document, error)
	// UpdateHeader writes paid/balance/status/void columns guarded by version
	UpdateHeader(ctx context.Context, doc *Document, expectedVersion int) error
}
