package persistence

import (
	"context"
	"strings"

	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPartyPageSize = 20
	maxPartyPageSize     = 100
)

// GormPartyRepository implements partner.PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByID finds a party regardless of is_active
func (r *GormPartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	var m models.PartyModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError("find party", err)
	}
	return m.ToDomain(), nil
}

// List returns a page of parties and the total matching count
func (r *GormPartyRepository) List(ctx context.Context, filter partner.PartyFilter) ([]partner.Party, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PartyModel{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(gstin) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError("count parties", err)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPartyPageSize
	}
	if size > maxPartyPageSize {
		size = maxPartyPageSize
	}

	var rows []models.PartyModel
	if err := query.Order("name").Order("id").
		Offset((page - 1) * size).Limit(size).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError("list parties", err)
	}

	parties := make([]partner.Party, len(rows))
	for i := range rows {
		parties[i] = *rows[i].ToDomain()
	}
	return parties, total, nil
}

// Save creates or updates a party
func (r *GormPartyRepository) Save(ctx context.Context, party *partner.Party) error {
	m := models.PartyModelFromDomain(party)
	return translateError("save party", r.db.WithContext(ctx).Save(m).Error)
}

var _ partner.PartyRepository = (*GormPartyRepository)(nil)
