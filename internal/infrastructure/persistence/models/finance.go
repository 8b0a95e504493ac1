package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for finance.Payment.
// An empty idempotency key is stored as NULL so the unique index only binds
// keyed payments.
type PaymentModel struct {
	ID             uuid.UUID             `gorm:"type:uuid;primaryKey"`
	DocumentID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	DocumentType   trade.DocumentType    `gorm:"type:varchar(20);not null;uniqueIndex:idx_payments_idempotency,priority:1"`
	IdempotencyKey *string               `gorm:"type:varchar(128);uniqueIndex:idx_payments_idempotency,priority:2"`
	Amount         decimal.Decimal       `gorm:"type:numeric(18,2);not null"`
	Date           time.Time             `gorm:"column:payment_date;not null"`
	Method         finance.PaymentMethod `gorm:"type:varchar(20);not null"`
	ReferenceNo    string                `gorm:"type:varchar(100)"`
	CreatedAt      time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	p := &finance.Payment{
		ID:           m.ID,
		DocumentID:   m.DocumentID,
		DocumentType: m.DocumentType,
		Amount:       m.Amount,
		Date:         m.Date,
		Method:       m.Method,
		ReferenceNo:  m.ReferenceNo,
		CreatedAt:    m.CreatedAt,
	}
	if m.IdempotencyKey != nil {
		p.IdempotencyKey = *m.IdempotencyKey
	}
	return p
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{
		ID:           p.ID,
		DocumentID:   p.DocumentID,
		DocumentType: p.DocumentType,
		Amount:       p.Amount,
		Date:         p.Date,
		Method:       p.Method,
		ReferenceNo:  p.ReferenceNo,
		CreatedAt:    p.CreatedAt,
	}
	if p.IdempotencyKey != "" {
		key := p.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}
