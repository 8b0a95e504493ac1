package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var m models.ProductModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError("find product", err)
	}
	return m.ToDomain(), nil
}

// FindByIDForUpdate loads the product with SELECT ... FOR UPDATE
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var m models.ProductModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError("lock product", err)
	}
	return m.ToDomain(), nil
}

// ListIDs returns every product ID ordered by SKU
func (r *GormProductRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Order("sku").Pluck("id", &ids).Error; err != nil {
		return nil, translateError("list products", err)
	}
	return ids, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	m := models.ProductModelFromDomain(product)
	return translateError("save product", r.db.WithContext(ctx).Save(m).Error)
}

// UpdateStock writes the stock cache guarded by the version read under lock
func (r *GormProductRepository) UpdateStock(ctx context.Context, product *catalog.Product, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, expectedVersion).
		Updates(map[string]any{
			"stock_qty":  product.StockQty,
			"version":    product.Version,
			"updated_at": product.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update product stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return errStaleVersion("product " + product.SKU)
	}
	return nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
