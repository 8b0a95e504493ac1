package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentSeriesRepository implements trade.NumberSequence on the
// document_series table. The series row stays locked until the enclosing
// transaction ends, so a rolled-back document gives its number back.
type GormDocumentSeriesRepository struct {
	db *gorm.DB
}

// NewGormDocumentSeriesRepository creates a new GormDocumentSeriesRepository
func NewGormDocumentSeriesRepository(db *gorm.DB) *GormDocumentSeriesRepository {
	return &GormDocumentSeriesRepository{db: db}
}

// Next increments and returns the counter of (docType, prefix, year).
// The first caller of a new series creates it; a concurrent creator loses
// on the primary key and gets CONCURRENCY_CONFLICT.
func (r *GormDocumentSeriesRepository) Next(ctx context.Context, docType trade.DocumentType, prefix string, year int) (int64, error) {
	db := r.db.WithContext(ctx)

	var series models.DocumentSeriesModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("document_type = ? AND prefix = ? AND year = ?", docType, prefix, year).
		First(&series).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		series = models.DocumentSeriesModel{
			DocumentType: docType,
			Prefix:       prefix,
			Year:         year,
			LastNumber:   1,
			UpdatedAt:    time.Now().UTC(),
		}
		if err := db.Create(&series).Error; err != nil {
			return 0, translateError("create document series", err)
		}
		return 1, nil
	}
	if err != nil {
		return 0, translateError("lock document series", err)
	}

	next := series.LastNumber + 1
	if err := db.Model(&models.DocumentSeriesModel{}).
		Where("document_type = ? AND prefix = ? AND year = ?", docType, prefix, year).
		Updates(map[string]any{"last_number": next, "updated_at": time.Now().UTC()}).Error; err != nil {
		return 0, translateError("advance document series", err)
	}
	return next, nil
}

var _ trade.NumberSequence = (*GormDocumentSeriesRepository)(nil)
