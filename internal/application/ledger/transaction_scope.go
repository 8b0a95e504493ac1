package ledger

import (
	"context"

	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/trade"
)

// TransactionScope runs ledger work inside one database transaction.
// If fn returns an error the transaction is rolled back and nothing it wrote
// survives: no document, line, stock movement or payment.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to the current
// transaction. Row locks taken through them are held until commit.
type TransactionalRepositories interface {
	Documents() trade.DocumentRepository
	Series() trade.NumberSequence
	Products() catalog.ProductRepository
	Parties() partner.PartyRepository
	Movements() inventory.StockMovementRepository
	Payments() finance.PaymentRepository
}
