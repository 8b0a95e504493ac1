package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordCommand appends a stand-alone movement (manual adjustment)
type RecordCommand struct {
	ProductID        uuid.UUID
	Delta            int64
	Reason           inventory.MovementReason
	SourceType       string
	SourceDocumentID *uuid.UUID
	Note             string
}

// ReconcileJobName is the job lock held while reconciling all products
const ReconcileJobName = "stock-reconcile"

// ReconcileResult reports one product's cache check
type ReconcileResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Cached    int64     `json:"cached"`
	Ledger    int64     `json:"ledger"`
	Repaired  bool      `json:"repaired"`
}

// StockLedger owns the append-only stock movement log and the cached
// Product.StockQty projection of it.
type StockLedger struct {
	scope   TransactionScope
	policy  inventory.StockPolicy
	verify  bool
	logger  *zap.Logger
	metrics Recorder
}

// NewStockLedger creates a stock ledger. With verifyOnRecord set, every
// append first compares the cache with Σ delta and repairs any drift.
func NewStockLedger(scope TransactionScope, policy inventory.StockPolicy, verifyOnRecord bool, logger *zap.Logger) *StockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockLedger{
		scope:   scope,
		policy:  policy,
		verify:  verifyOnRecord,
		logger:  logger,
		metrics: noopRecorder{},
	}
}

// SetRecorder sets the metrics recorder
func (s *StockLedger) SetRecorder(r Recorder) {
	if r != nil {
		s.metrics = r
	}
}

// Record appends one movement in its own transaction
func (s *StockLedger) Record(ctx context.Context, cmd RecordCommand) (*inventory.StockMovement, error) {
	m, err := inventory.NewStockMovement(cmd.ProductID, cmd.Delta, cmd.Reason)
	if err != nil {
		return nil, err
	}
	if cmd.SourceDocumentID != nil {
		m.WithSource(cmd.SourceType, *cmd.SourceDocumentID)
	}
	m.WithNote(cmd.Note)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.Products().FindByIDForUpdate(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		return s.record(ctx, repos, product, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Balance returns the product's stock, verified against the movement log
func (s *StockLedger) Balance(ctx context.Context, productID uuid.UUID) (int64, error) {
	var balance int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if _, err := s.heal(ctx, repos, product); err != nil {
			return err
		}
		balance = product.StockQty
		return nil
	})
	return balance, err
}

// History returns a product's movements in created_at order. It never writes.
func (s *StockLedger) History(ctx context.Context, filter inventory.HistoryFilter) ([]inventory.StockMovement, error) {
	if filter.ProductID == uuid.Nil {
		return nil, shared.NewValidationError("product_id is required")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, shared.NewValidationError("to must not be before from")
	}

	var entries []inventory.StockMovement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Products().FindByID(ctx, filter.ProductID); err != nil {
			return err
		}
		var err error
		entries, err = repos.Movements().History(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Sequence < entries[j].Sequence
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// Reconcile recomputes Σ delta for one product and repairs the cache
func (s *StockLedger) Reconcile(ctx context.Context, productID uuid.UUID) (*ReconcileResult, error) {
	var result *ReconcileResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		cached := product.StockQty
		repaired, err := s.heal(ctx, repos, product)
		if err != nil {
			return err
		}
		result = &ReconcileResult{
			ProductID: productID,
			Cached:    cached,
			Ledger:    product.StockQty,
			Repaired:  repaired,
		}
		return nil
	})
	return result, err
}

// ReconcileAll reconciles every product, one transaction per product
func (s *StockLedger) ReconcileAll(ctx context.Context) ([]ReconcileResult, error) {
	var ids []uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ids, err = repos.Products().ListIDs(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	started := time.Now()
	results := make([]ReconcileResult, 0, len(ids))
	repaired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := s.Reconcile(ctx, id)
		if err != nil {
			return results, err
		}
		if r.Repaired {
			repaired++
		}
		results = append(results, *r)
	}

	s.logger.Info("Stock reconciliation finished",
		zap.Int("products", len(results)),
		zap.Int("repaired", repaired),
		zap.Duration("duration", time.Since(started)),
	)
	return results, nil
}

// record appends m for a product that the caller has locked in repos
func (s *StockLedger) record(ctx context.Context, repos TransactionalRepositories, product *catalog.Product, m *inventory.StockMovement) error {
	if s.verify {
		if _, err := s.heal(ctx, repos, product); err != nil {
			return err
		}
	}

	expected := product.Version
	if err := s.policy.Apply(product, m); err != nil {
		return err
	}
	if s.verify {
		last, err := repos.Movements().LastSequence(ctx, product.ID)
		if err != nil {
			return err
		}
		if m.Sequence <= last {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("product %s version %d is behind movement sequence %d", product.SKU, m.Sequence, last))
		}
	}
	if err := repos.Movements().Append(ctx, m); err != nil {
		return err
	}
	return repos.Products().UpdateStock(ctx, product, expected)
}

// heal replaces a drifted cache with Σ delta. Returns true if it wrote.
func (s *StockLedger) heal(ctx context.Context, repos TransactionalRepositories, product *catalog.Product) (bool, error) {
	sum, err := repos.Movements().SumDeltas(ctx, product.ID)
	if err != nil {
		return false, err
	}
	if sum == product.StockQty {
		return false, nil
	}

	drift := product.StockQty - sum
	s.logger.Warn("Stock cache drifted from movement log, repairing",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.Int64("cached", product.StockQty),
		zap.Int64("ledger", sum),
	)
	s.metrics.StockDriftRepaired(ctx, drift)

	expected := product.Version
	product.StockQty = sum
	product.MarkChanged()
	if err := repos.Products().UpdateStock(ctx, product, expected); err != nil {
		return false, err
	}
	return true, nil
}
