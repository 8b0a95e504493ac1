package partner

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
)

// PartyType distinguishes customers (invoiced) from vendors (purchased from)
type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeVendor   PartyType = "vendor"
)

// IsValid reports whether t is a known party type
func (t PartyType) IsValid() bool {
	return t == PartyTypeCustomer || t == PartyTypeVendor
}

// ParsePartyType parses a case-insensitive party type
func ParsePartyType(s string) (PartyType, error) {
	t := PartyType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewValidationError("unknown party type %q", s)
	}
	return t, nil
}

// GSTRegistrationStatus is the party's registration under GST
type GSTRegistrationStatus string

const (
	GSTRegistered   GSTRegistrationStatus = "registered"
	GSTUnregistered GSTRegistrationStatus = "unregistered"
	GSTComposition  GSTRegistrationStatus = "composition"
	GSTConsumer     GSTRegistrationStatus = "consumer"
)

// DefaultCreditDays is used for due dates when a party has no terms
const DefaultCreditDays = 30

// Party is a customer or vendor as the ledger sees it.
// The party directory owns these rows; the ledger only reads them.
type Party struct {
	shared.BaseEntity
	Type                  PartyType
	Name                  string
	GSTIN                 string
	GSTEnabled            bool
	GSTRegistrationStatus GSTRegistrationStatus
	HomeState             string
	CreditDays            int
	IsActive              bool
}

// NewParty creates an active party
func NewParty(partyType PartyType, name, homeState string, gstEnabled bool) (*Party, error) {
	if !partyType.IsValid() {
		return nil, shared.NewValidationError("unknown party type %q", partyType)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("party name cannot be empty")
	}
	status := GSTUnregistered
	if gstEnabled {
		status = GSTRegistered
	}
	return &Party{
		BaseEntity:            shared.NewBaseEntity(),
		Type:                  partyType,
		Name:                  name,
		GSTEnabled:            gstEnabled,
		GSTRegistrationStatus: status,
		HomeState:             strings.TrimSpace(homeState),
		CreditDays:            DefaultCreditDays,
		IsActive:              true,
	}, nil
}

// Deactivate soft-deletes the party from the directory. Historical
// documents keep referencing it.
func (p *Party) Deactivate() {
	p.IsActive = false
	p.Touch()
}

// CanTrade reports whether the party may appear on a document of the given
// kind. Customers receive invoices, vendors issue purchases.
func (p *Party) CanTrade(want PartyType) bool {
	return p.Type == want
}

// EffectiveCreditDays returns the credit terms, falling back to the default
func (p *Party) EffectiveCreditDays() int {
	if p.CreditDays <= 0 {
		return DefaultCreditDays
	}
	return p.CreditDays
}
