package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements finance.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment. A reused idempotency key surfaces as
// CONCURRENCY_CONFLICT through the unique index.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	m := models.PaymentModelFromDomain(payment)
	return translateError("insert payment", r.db.WithContext(ctx).Create(m).Error)
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	var m models.PaymentModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError("find payment", err)
	}
	return m.ToDomain(), nil
}

// FindByDocument returns a document's payments in creation order
func (r *GormPaymentRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]finance.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at").Order("id").
		Find(&rows).Error; err != nil {
		return nil, translateError("load payments", err)
	}
	payments := make([]finance.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// FindByIdempotencyKey finds the payment recorded under key
func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, docType trade.DocumentType, key string) (*finance.Payment, error) {
	var m models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("document_type = ? AND idempotency_key = ?", docType, key).
		First(&m).Error; err != nil {
		return nil, translateError("find payment by idempotency key", err)
	}
	return m.ToDomain(), nil
}

var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)
