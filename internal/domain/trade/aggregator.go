package trade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/catalog"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one requested line: product, quantity and unit rate
type LineInput struct {
	ProductID uuid.UUID
	Qty       int64
	Rate      decimal.Decimal
	Discount  decimal.Decimal
}

// BuildRequest carries everything Build needs. Products must contain every
// product referenced by Lines.
type BuildRequest struct {
	Type               DocumentType
	Party              *partner.Party
	Lines              []LineInput
	Products           map[uuid.UUID]*catalog.Product
	PlaceOfSupplyState string
	Date               time.Time
	DueDate            *time.Time
	Notes              string
}

// NumberSequence hands out the next counter value of a series. Implementations
// must serialize callers (row lock or equivalent) so values are never reused.
type NumberSequence interface {
	Next(ctx context.Context, docType DocumentType, prefix string, year int) (int64, error)
}

// SeriesConfig names the number prefix per document type
type SeriesConfig struct {
	InvoicePrefix  string
	PurchasePrefix string
}

// Prefix returns the configured prefix for t
func (c SeriesConfig) Prefix(t DocumentType) string {
	if t == DocumentTypePurchase {
		return c.PurchasePrefix
	}
	return c.InvoicePrefix
}

// FormatNumber renders PREFIX-YYYY-NNNNN
func FormatNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%05d", prefix, year, seq)
}

// Aggregator builds uncommitted documents from line inputs
type Aggregator struct {
	homeState string
	series    SeriesConfig
}

// NewAggregator creates an aggregator for a company registered in homeState
func NewAggregator(homeState string, series SeriesConfig) *Aggregator {
	return &Aggregator{homeState: homeState, series: series}
}

// ValidateLines checks line shape without touching products
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return shared.NewValidationError("document must have at least one line")
	}
	for i, l := range lines {
		if l.ProductID == uuid.Nil {
			return shared.NewValidationError("line %d: product id is required", i+1)
		}
		if l.Qty <= 0 {
			return shared.NewValidationError("line %d: quantity must be positive", i+1)
		}
		if l.Rate.IsNegative() {
			return shared.NewValidationError("line %d: rate cannot be negative", i+1)
		}
	}
	return nil
}

// Build prices every line, sums the header from the rounded line values and
// assigns the next number from numbers. The result is not persisted.
func (a *Aggregator) Build(ctx context.Context, req BuildRequest, numbers NumberSequence) (*Document, error) {
	if !req.Type.IsValid() {
		return nil, shared.NewValidationError("unknown document type %q", req.Type)
	}
	if req.Party == nil {
		return nil, shared.NewValidationError("party is required")
	}
	if !req.Party.CanTrade(req.Type.PartyType()) {
		return nil, shared.NewValidationError("party %s is a %s and cannot be used on a %s", req.Party.Name, req.Party.Type, req.Type)
	}
	if err := ValidateLines(req.Lines); err != nil {
		return nil, err
	}

	place := strings.TrimSpace(req.PlaceOfSupplyState)
	if place == "" {
		place = req.Party.HomeState
	}
	if req.Party.GSTEnabled && place == "" {
		return nil, shared.NewValidationError("place of supply is required for a GST party")
	}
	sameState := tax.SameState(place, a.homeState)

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	due := date.AddDate(0, 0, req.Party.EffectiveCreditDays())
	if req.DueDate != nil {
		if req.DueDate.Before(date) {
			return nil, shared.NewValidationError("due date cannot be before document date")
		}
		due = *req.DueDate
	}

	doc := &Document{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Type:               req.Type,
		Date:               date,
		DueDate:            due,
		PartyID:            req.Party.ID,
		PlaceOfSupplyState: place,
		GSTEnabled:         req.Party.GSTEnabled,
		SameState:          sameState,
		AmountPaid:         decimal.Zero,
		Notes:              req.Notes,
		Lines:              make([]LineItem, 0, len(req.Lines)),
	}

	for i, in := range req.Lines {
		product, ok := req.Products[in.ProductID]
		if !ok || product == nil {
			return nil, shared.NewValidationError("line %d: product %s not found", i+1, in.ProductID)
		}
		line, err := NewLineItem(doc.ID, i+1, in.ProductID, in.Qty, in.Rate, in.Discount, product.GSTRate, doc.GSTEnabled, sameState)
		if err != nil {
			return nil, err
		}
		doc.Lines = append(doc.Lines, *line)
	}
	doc.Refresh()

	prefix := a.series.Prefix(req.Type)
	seq, err := numbers.Next(ctx, req.Type, prefix, date.Year())
	if err != nil {
		return nil, err
	}
	doc.Number = FormatNumber(prefix, date.Year(), seq)

	return doc, nil
}
