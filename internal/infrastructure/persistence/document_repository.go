package persistence

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentRepository implements trade.DocumentRepository using GORM.
// Headers live in documents and lines in document_lines.
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Create inserts the header and its lines
func (r *GormDocumentRepository) Create(ctx context.Context, doc *trade.Document) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(models.DocumentModelFromDomain(doc)).Error; err != nil {
		return translateError("insert document", err)
	}
	if len(doc.Lines) == 0 {
		return nil
	}

	lines := make([]*models.DocumentLineModel, len(doc.Lines))
	for i := range doc.Lines {
		lines[i] = models.DocumentLineModelFromDomain(&doc.Lines[i])
	}
	return translateError("insert document lines", db.Create(&lines).Error)
}

// FindByID loads a document with its lines
func (r *GormDocumentRepository) FindByID(ctx context.Context, docType trade.DocumentType, id uuid.UUID) (*trade.Document, error) {
	return r.find(ctx, r.db.WithContext(ctx), "find document", "document_type = ? AND id = ?", docType, id)
}

// FindByIDForUpdate loads a document and locks its header row
func (r *GormDocumentRepository) FindByIDForUpdate(ctx context.Context, docType trade.DocumentType, id uuid.UUID) (*trade.Document, error) {
	locked := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.find(ctx, locked, "lock document", "document_type = ? AND id = ?", docType, id)
}

// FindByNumber loads a document by its series number
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, docType trade.DocumentType, number string) (*trade.Document, error) {
	return r.find(ctx, r.db.WithContext(ctx), "find document by number", "document_type = ? AND number = ?", docType, number)
}

func (r *GormDocumentRepository) find(ctx context.Context, query *gorm.DB, op string, cond string, args ...any) (*trade.Document, error) {
	var header models.DocumentModel
	if err := query.Where(cond, args...).First(&header).Error; err != nil {
		return nil, translateError(op, err)
	}

	var lines []models.DocumentLineModel
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", header.ID).
		Order("line_no").
		Find(&lines).Error; err != nil {
		return nil, translateError("load document lines", err)
	}

	doc := header.ToDomain()
	doc.Lines = make([]trade.LineItem, len(lines))
	for i := range lines {
		doc.Lines[i] = lines[i].ToDomain()
	}
	return doc, nil
}

// UpdateHeader writes the payment and void columns. Lines and totals are
// immutable once committed.
func (r *GormDocumentRepository) UpdateHeader(ctx context.Context, doc *trade.Document, expectedVersion int) error {
	var voidedAt *time.Time
	if doc.VoidedAt != nil {
		t := *doc.VoidedAt
		voidedAt = &t
	}

	result := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", doc.ID, expectedVersion).
		Updates(map[string]any{
			"amount_paid": doc.AmountPaid,
			"balance_due": doc.BalanceDue,
			"status":      doc.Status,
			"voided_at":   voidedAt,
			"version":     doc.Version,
			"updated_at":  doc.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("update document", result.Error)
	}
	if result.RowsAffected == 0 {
		return errStaleVersion("document " + doc.Number)
	}
	return nil
}

var _ trade.DocumentRepository = (*GormDocumentRepository)(nil)
