package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements inventory.StockMovementRepository.
// It only ever inserts.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append inserts one movement
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	m := models.StockMovementModelFromDomain(movement)
	return translateError("append stock movement", r.db.WithContext(ctx).Create(m).Error)
}

// History returns a product's movements by created_at, then sequence
func (r *GormStockMovementRepository) History(ctx context.Context, filter inventory.HistoryFilter) ([]inventory.StockMovement, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", filter.ProductID)
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at <= ?", filter.To)
	}

	var rows []models.StockMovementModel
	if err := query.Order("created_at").Order("sequence").Find(&rows).Error; err != nil {
		return nil, translateError("load stock history", err)
	}
	return toMovements(rows), nil
}

// FindBySource returns the movements recorded for a document
func (r *GormStockMovementRepository) FindBySource(ctx context.Context, documentID uuid.UUID) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("source_document_id = ?", documentID).
		Order("created_at").Order("sequence").
		Find(&rows).Error; err != nil {
		return nil, translateError("load document movements", err)
	}
	return toMovements(rows), nil
}

// SumDeltas returns Σ delta for a product
func (r *GormStockMovementRepository) SumDeltas(ctx context.Context, productID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Select("CAST(COALESCE(SUM(delta), 0) AS BIGINT)").
		Where("product_id = ?", productID).
		Scan(&sum).Error; err != nil {
		return 0, translateError("sum stock movements", err)
	}
	return sum, nil
}

// LastSequence returns the highest sequence for a product, or 0
func (r *GormStockMovementRepository) LastSequence(ctx context.Context, productID uuid.UUID) (int64, error) {
	var seq int64
	if err := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Select("CAST(COALESCE(MAX(sequence), 0) AS BIGINT)").
		Where("product_id = ?", productID).
		Scan(&seq).Error; err != nil {
		return 0, translateError("read last stock sequence", err)
	}
	return seq, nil
}

func toMovements(rows []models.StockMovementModel) []inventory.StockMovement {
	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
