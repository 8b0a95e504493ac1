package models

import (
	"github.com/erp/ledger/internal/domain/partner"
)

// PartyModel is the persistence model for partner.Party
type PartyModel struct {
	BaseModel
	Type                  partner.PartyType             `gorm:"type:varchar(20);not null;index"`
	Name                  string                        `gorm:"type:varchar(200);not null"`
	GSTIN                 string                        `gorm:"column:gstin;type:varchar(15)"`
	GSTEnabled            bool                          `gorm:"column:gst_enabled;not null;default:false"`
	GSTRegistrationStatus partner.GSTRegistrationStatus `gorm:"column:gst_registration_status;type:varchar(20)"`
	HomeState             string                        `gorm:"type:varchar(100)"`
	CreditDays            int                           `gorm:"not null;default:0"`
	IsActive              bool                          `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the persistence model to a domain Party
func (m *PartyModel) ToDomain() *partner.Party {
	return &partner.Party{
		BaseEntity:            m.Entity(),
		Type:                  m.Type,
		Name:                  m.Name,
		GSTIN:                 m.GSTIN,
		GSTEnabled:            m.GSTEnabled,
		GSTRegistrationStatus: m.GSTRegistrationStatus,
		HomeState:             m.HomeState,
		CreditDays:            m.CreditDays,
		IsActive:              m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Party
func (m *PartyModel) FromDomain(p *partner.Party) {
	m.SetEntity(p.BaseEntity)
	m.Type = p.Type
	m.Name = p.Name
	m.GSTIN = p.GSTIN
	m.GSTEnabled = p.GSTEnabled
	m.GSTRegistrationStatus = p.GSTRegistrationStatus
	m.HomeState = p.HomeState
	m.CreditDays = p.CreditDays
	m.IsActive = p.IsActive
}

// PartyModelFromDomain creates a persistence model from a domain Party
func PartyModelFromDomain(p *partner.Party) *PartyModel {
	m := &PartyModel{}
	m.FromDomain(p)
	return m
}
