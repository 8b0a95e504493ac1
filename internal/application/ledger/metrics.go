package ledger

import (
	"context"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// Recorder receives business counters from the gateway
type Recorder interface {
	DocumentCreated(ctx context.Context, docType trade.DocumentType, grandTotal decimal.Decimal)
	DocumentVoided(ctx context.Context, docType trade.DocumentType)
	PaymentAllocated(ctx context.Context, docType trade.DocumentType, amount decimal.Decimal)
	StockDriftRepaired(ctx context.Context, drift int64)
	ConflictRetried(ctx context.Context, operation string)
}

type noopRecorder struct{}

func (noopRecorder) DocumentCreated(context.Context, trade.DocumentType, decimal.Decimal)  {}
func (noopRecorder) DocumentVoided(context.Context, trade.DocumentType)                    {}
func (noopRecorder) PaymentAllocated(context.Context, trade.DocumentType, decimal.Decimal) {}
func (noopRecorder) StockDriftRepaired(context.Context, int64)                             {}
func (noopRecorder) ConflictRetried(context.Context, string)                               {}
