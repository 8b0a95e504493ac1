package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements ledger.TransactionScope with GORM
// transactions. Every repository handed to fn shares the one tx.
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// ScopeOption configures a GormTransactionScope
type ScopeOption func(*GormTransactionScope)

// WithLockTimeout bounds row-lock waits on Postgres (SET LOCAL lock_timeout)
func WithLockTimeout(d time.Duration) ScopeOption {
	return func(s *GormTransactionScope) {
		s.lockTimeout = d
	}
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, opts ...ScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back; otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos ledger.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return translateError("set lock timeout", err)
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateError("commit transaction", err)
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Documents() trade.DocumentRepository {
	return NewGormDocumentRepository(r.tx)
}

func (r *gormTransactionalRepositories) Series() trade.NumberSequence {
	return NewGormDocumentSeriesRepository(r.tx)
}

func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Parties() partner.PartyRepository {
	return NewGormPartyRepository(r.tx)
}

func (r *gormTransactionalRepositories) Movements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) Payments() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

var (
	_ ledger.TransactionScope          = (*GormTransactionScope)(nil)
	_ ledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
