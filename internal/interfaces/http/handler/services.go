package handler

import (
	"context"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
)

// LedgerService is the part of ledger.Gateway the document, payment and
// party handlers use
type LedgerService interface {
	CreateDocument(ctx context.Context, cmd ledger.CreateDocumentCommand) (*trade.Document, error)
	AddPayment(ctx context.Context, cmd ledger.AddPaymentCommand) (*finance.Payment, error)
	VoidDocument(ctx context.Context, docType trade.DocumentType, id uuid.UUID) (*trade.Document, error)
	AdjustStock(ctx context.Context, cmd ledger.AdjustStockCommand) (*inventory.StockMovement, error)
	GetDocument(ctx context.Context, docType trade.DocumentType, id uuid.UUID) (*ledger.DocumentView, error)
	ListParties(ctx context.Context, filter partner.PartyFilter) ([]partner.Party, int64, error)
}

// StockService is the part of ledger.StockLedger the stock handlers use
type StockService interface {
	Balance(ctx context.Context, productID uuid.UUID) (int64, error)
	History(ctx context.Context, filter inventory.HistoryFilter) ([]inventory.StockMovement, error)
	Reconcile(ctx context.Context, productID uuid.UUID) (*ledger.ReconcileResult, error)
	ReconcileAll(ctx context.Context) ([]ledger.ReconcileResult, error)
}

// JobRunner runs fn at most once at a time across replicas
type JobRunner interface {
	Run(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

var (
	_ LedgerService = (*ledger.Gateway)(nil)
	_ StockService  = (*ledger.StockLedger)(nil)
)
